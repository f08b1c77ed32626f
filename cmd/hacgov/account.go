package main

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/calehh/hac-gov/crypto"
	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
	Index   uint64
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Query an account by index or address",
	RunE:  accountRun,
}

type showArguments struct {
	Home string
}

var showArgs showArguments

var showCmd = &cobra.Command{
	Use:   "pk",
	Short: "Print the public key and address of the local validator key",
	RunE:  showRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address")
	accountCmd.Flags().Uint64VarP(&accountArgs.Index, "index", "i", 0, "account index")
	showCmd.Flags().StringVarP(&showArgs.Home, "homedir", "d", ".", "home dir")
	accountCmd.AddCommand(showCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	cli, err := newClient(accountArgs.Url)
	if err != nil {
		return err
	}
	act, err := queryAccount(cmd.Context(), cli, accountArgs.Index, accountArgs.Address)
	if err != nil {
		return err
	}
	fmt.Printf("index:%v nonce:%v pk:%v addr:%v\n",
		act.Index, act.Nonce, hex.EncodeToString(act.PubKey), act.Address())
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	pv, err := crypto.LoadFilePV(filepath.Join(showArgs.Home, "config", DefaultPrivValKeyName))
	if err != nil {
		return err
	}
	fmt.Printf("pk:%s\n", hex.EncodeToString(pv.PublicKey()))
	fmt.Printf("address:%s\n", pv.Address())
	return nil
}
