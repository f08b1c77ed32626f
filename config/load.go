package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// LoadConfig reads config.toml and merges app.toml on top. A missing app.toml
// keeps the app defaults.
func LoadConfig(home string) (cfg *Config, err error) {
	cfg = DefaultConfig(home)
	home = cfg.RootDir

	v := viper.New()
	v.SetConfigFile(cfg.CometConfigFile())
	if err = v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	v.SetConfigFile(cfg.AppConfigFile())
	if err = v.MergeInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading app config: %w", err)
	}
	if err = v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SetRoot(home)
	cfg.App.Home = home
	if err = cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return
}
