package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	app_config "github.com/calehh/hac-gov/config"
	"github.com/calehh/hac-gov/types"
	cmtos "github.com/cometbft/cometbft/libs/os"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

type printInfo struct {
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	Validator  string          `json:"validator" yaml:"validator"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long: `Initialize validators's and node's configuration files. Extra governance
accounts are registered at genesis with --accounts.`,
	Args: cobra.ExactArgs(0),
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "home directory")
	initCmd.Flags().String(types.FlagAccounts, "", "comma separated hex ed25519 public keys of genesis accounts")
}

// parseAccounts reads the --accounts flag value.
func parseAccounts(list string) (accounts []types.GenesisAccount, err error) {
	accounts = make([]types.GenesisAccount, 0)
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		pk, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid account pubkey %q: %w", s, err)
		}
		accounts = append(accounts, types.GenesisAccount{PubKey: pk})
	}
	return
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	accountList, _ := cmd.Flags().GetString(types.FlagAccounts)

	if chainID == "" {
		chainID = fmt.Sprintf("test-chain-%v", rand.Uint64())
	}
	accounts, err := parseAccounts(accountList)
	if err != nil {
		return err
	}
	appState, err := json.Marshal(types.GenesisAppState{Accounts: accounts})
	if err != nil {
		return err
	}
	if _, err = types.ParseGenesisAppState(appState); err != nil {
		return err
	}

	appConfig := app_config.DefaultConfig(home)
	if err = app_config.WriteConfigFiles(appConfig); err != nil {
		return err
	}
	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	vals := []types.GenesisValidator{
		{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower},
	}

	genFile := appConfig.GenesisFile()
	if cmtos.FileExists(genFile) && !overwrite {
		return fmt.Errorf("genesis file %v already exists, use --%s to replace it", genFile, types.FlagOverwrite)
	}
	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appState,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file %v", err)
	}
	toPrint := printInfo{
		ChainID:    chainID,
		NodeID:     nodeID,
		Validator:  pk.Address().String(),
		AppMessage: appGenesis.AppState,
	}
	return displayInfo(toPrint)
}
