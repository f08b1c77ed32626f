package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

const (
	DefaultHomeDir         = "$HOME/.hacgov"
	DefaultIndexerDBName   = "indexer.db"
	DefaultIndexerListen   = "127.0.0.1:8081"
	DefaultIndexerInterval = time.Second * 2

	AppConfigFileName = "app.toml"
)

// GovAppConfig holds the settings read from config/app.toml.
type GovAppConfig struct {
	Home string `mapstructure:"-"`

	IndexerEnable       bool          `mapstructure:"indexer_enable"`
	IndexerDBPath       string        `mapstructure:"indexer_db_path"`
	IndexerListenAddr   string        `mapstructure:"indexer_listen_addr"`
	IndexerPollInterval time.Duration `mapstructure:"indexer_poll_interval"`
}

func DefaultGovAppConfig(home string) *GovAppConfig {
	return &GovAppConfig{
		Home:                home,
		IndexerEnable:       true,
		IndexerDBPath:       DefaultIndexerDBName,
		IndexerListenAddr:   DefaultIndexerListen,
		IndexerPollInterval: DefaultIndexerInterval,
	}
}

// IndexerDB resolves the indexer database path against the home dir.
func (c *GovAppConfig) IndexerDB() string {
	if filepath.IsAbs(c.IndexerDBPath) {
		return c.IndexerDBPath
	}
	return filepath.Join(c.Home, c.IndexerDBPath)
}

func (c *GovAppConfig) ValidateBasic() error {
	if c.IndexerEnable {
		if c.IndexerDBPath == "" {
			return fmt.Errorf("app.indexer_db_path can't be empty")
		}
		if c.IndexerPollInterval <= 0 {
			return fmt.Errorf("app.indexer_poll_interval must be positive, got %v", c.IndexerPollInterval)
		}
	}
	return nil
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *GovAppConfig `mapstructure:"app"`
}

func ExpandHome(home string) string {
	if len(home) == 0 {
		home = os.ExpandEnv(DefaultHomeDir)
	}
	return home
}

func DefaultConfig(home string) *Config {
	home = ExpandHome(home)
	config := &Config{
		DefaultGovCometConfig(),
		DefaultGovAppConfig(home),
	}
	config.SetRoot(home)
	return config
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.App.ValidateBasic()
}

func (c *Config) AppConfigFile() string {
	return filepath.Join(c.RootDir, "config", AppConfigFileName)
}

func (c *Config) CometConfigFile() string {
	return filepath.Join(c.RootDir, "config", "config.toml")
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultGovCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
