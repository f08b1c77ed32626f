package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/calehh/hac-gov/crypto"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

type txArguments struct {
	Url    string
	Index  uint64
	Nonce  uint64
	Skey   string
	NoSend bool
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	keyFlag(cmd, &args.Skey)
	cmd.Flags().Uint64VarP(&args.Index, "index", "i", 0, "account index, looked up from the key when unset")
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "account nonce, queried from the node when unset")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "not send transaction but print it")
}

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

// signTx signs btx for chainId and returns the encoded tx.
func signTx(btx *tx.GovTx, chainId string, pv *crypto.PV) (dat []byte, err error) {
	if err = btx.ValidateBasic(); err != nil {
		return
	}
	dat, err = btx.SigData([]byte(chainId))
	if err != nil {
		return
	}
	sig, err := pv.Sign(dat)
	if err != nil {
		return nil, err
	}
	btx.Sig = [][]byte{sig}
	return tx.MarshalGovTx(btx)
}

func queryAccount(ctx context.Context, cli *http.HTTP, index uint64, address string) (*state.Account, error) {
	var dat []byte
	var err error
	if len(address) > 0 {
		dat, err = hex.DecodeString(address)
		if err != nil {
			return nil, fmt.Errorf("invalid address %v: %w", address, err)
		}
	} else {
		dat = types.EncodeQueryIndex(index)
	}
	res, err := cli.ABCIQuery(ctx, "/accounts/", dat)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("query account: code %d %s", res.Response.Code, res.Response.Log)
	}
	var act state.Account
	err = act.UnmarshalJSON(res.Response.Value)
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// sendTx fills in the sender, signs the tx and broadcasts it.
func sendTx(cmd *cobra.Command, args *txArguments, tp tx.GovTxType, body any) error {
	cli, err := newClient(args.Url)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	chainId := gres.Genesis.ChainID

	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tp,
		Nonce:   args.Nonce,
		Account: args.Index,
		Tx:      body,
	}
	if btx.Account == 0 || !cmd.Flags().Changed("nonce") {
		address := ""
		if args.Index == 0 {
			address = pv.Address()
		}
		act, err := queryAccount(ctx, cli, args.Index, address)
		if err != nil {
			return err
		}
		btx.Account = act.Index
		if !cmd.Flags().Changed("nonce") {
			btx.Nonce = act.Nonce
		}
	}
	dat, err := signTx(btx, chainId, pv)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Printf("address: %s\n", pv.Address())
		fmt.Printf("tx: %s\n", string(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	return nil
}

func printJSON(dat []byte) error {
	var v any
	if err := json.Unmarshal(dat, &v); err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
