package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	DefaultPrivValKeyName   = "priv_validator_key.json"
	DefaultPrivValStateName = "priv_validator_state.json"
	DefaultNodeUrl          = "http://127.0.0.1:26657"
)

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", DefaultNodeUrl, "hacgov node rpc url")
}

func keyFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "skeyPath", "s", filepath.Join("config", DefaultPrivValKeyName), "private key path")
}
