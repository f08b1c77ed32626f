package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_config "github.com/calehh/hac-gov/config"
	"github.com/calehh/hac-gov/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	"github.com/spf13/cobra"
)

type indexerArguments struct {
	Url      string
	DBPath   string
	Listen   string
	Interval time.Duration
	LogLevel string
}

var indexerArgs indexerArguments

var indexerCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Index governance events of a remote node into sqlite and serve them over HTTP",
	RunE:  indexerRun,
}

func init() {
	urlFlag(indexerCmd, &indexerArgs.Url)
	indexerCmd.Flags().StringVarP(&indexerArgs.DBPath, "db", "", app_config.DefaultIndexerDBName, "sqlite database path")
	indexerCmd.Flags().StringVarP(&indexerArgs.Listen, "listen", "l", app_config.DefaultIndexerListen, "query service listen address")
	indexerCmd.Flags().DurationVarP(&indexerArgs.Interval, "interval", "", app_config.DefaultIndexerInterval, "poll interval")
	indexerCmd.Flags().StringVarP(&indexerArgs.LogLevel, "log_level", "", cmtconfig.DefaultLogLevel, "log level")
}

func indexerRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(indexerArgs.LogLevel)
	if err != nil {
		return err
	}
	src, err := indexer.NewRPCSource(indexerArgs.Url)
	if err != nil {
		return err
	}
	idx, err := indexer.NewChainIndexer(logger, indexerArgs.DBPath, src, indexerArgs.Interval)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go idx.Start(ctx)

	svc := indexer.NewService(indexerArgs.Listen, idx)
	go func() {
		<-ctx.Done()
		svc.Stop()
	}()
	return svc.Start()
}
