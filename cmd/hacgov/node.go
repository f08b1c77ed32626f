package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/hac-gov/app"
	app_config "github.com/calehh/hac-gov/config"
	"github.com/calehh/hac-gov/indexer"
	"github.com/calehh/hac-gov/types"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
)

var homeDir string

var rootCmd = &cobra.Command{
	Use:   "hacgov",
	Short: "hacgov runs a governance ledger chain",
	Long: `A cometbft chain whose accounts create proposals, vote on them
and finalize them by simple majority.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&homeDir, types.FlagHome, "d", "", "home directory")
}

func newLogger(logLevel string) (cmtlog.Logger, error) {
	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	return cmtflags.ParseLogLevel(logLevel, logger, cmtconfig.DefaultLogLevel)
}

// rpcHttpUrl turns the rpc listen address into a url a client can dial.
func rpcHttpUrl(listenAddr string) (string, error) {
	rpcUrl, err := url.Parse(listenAddr)
	if err != nil {
		return "", err
	}
	rpcUrl.Scheme = "http"
	return rpcUrl.String(), nil
}

func run(cmd *cobra.Command, args []string) error {
	appConfig, err := app_config.LoadConfig(homeDir)
	if err != nil {
		return err
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		return fmt.Errorf("failed to load node's key: %w", err)
	}

	logger, err := newLogger(appConfig.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	govApp, err := app.NewGovApp(appConfig.App, logger)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(govApp),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}

	if err = govApp.Start(node.BlockStore()); err != nil {
		return err
	}
	if err = node.Start(); err != nil {
		return fmt.Errorf("start comet node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var svc *indexer.Service
	var idx *indexer.ChainIndexer
	if appConfig.App.IndexerEnable {
		idx, svc, err = startIndexer(ctx, appConfig, logger)
		if err != nil {
			logger.Error("start indexer fail", "err", err)
		}
	}

	defer func() {
		logger.Info("shutting down")
		cancel()
		if svc != nil {
			if err := svc.Stop(); err != nil {
				logger.Error("stop indexer service fail", "err", err)
			}
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := node.Stop(); err != nil {
				logger.Error("stop comet node fail", "err", err)
			}
			node.Wait()
			govApp.Stop()
			if idx != nil {
				idx.Close()
			}
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	return nil
}

func startIndexer(ctx context.Context, appConfig *app_config.Config, logger cmtlog.Logger) (*indexer.ChainIndexer, *indexer.Service, error) {
	rpcUrl, err := rpcHttpUrl(appConfig.RPC.ListenAddress)
	if err != nil {
		return nil, nil, err
	}
	src, err := indexer.NewRPCSource(rpcUrl)
	if err != nil {
		return nil, nil, err
	}
	idx, err := indexer.NewChainIndexer(logger, appConfig.App.IndexerDB(), src, appConfig.App.IndexerPollInterval)
	if err != nil {
		return nil, nil, err
	}
	go idx.Start(ctx)
	svc := indexer.NewService(appConfig.App.IndexerListenAddr, idx)
	go func() {
		if err := svc.Start(); err != nil {
			logger.Error("indexer service stopped", "err", err)
		}
	}()
	return idx, svc, nil
}
