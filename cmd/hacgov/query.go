package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/calehh/hac-gov/types"
	"github.com/spf13/cobra"
)

type proposalArguments struct {
	Url      string
	Page     int
	PageSize int
}

var proposalArgs proposalArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal [id]",
	Short: "Show one proposal, or a page of proposals newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  proposalRun,
}

var votesUrl string

var votesCmd = &cobra.Command{
	Use:   "votes <proposal>",
	Short: "List the votes recorded for a proposal",
	Args:  cobra.ExactArgs(1),
	RunE:  votesRun,
}

func init() {
	urlFlag(proposalCmd, &proposalArgs.Url)
	proposalCmd.Flags().IntVarP(&proposalArgs.Page, "page", "p", 0, "page number")
	proposalCmd.Flags().IntVarP(&proposalArgs.PageSize, "pagesize", "", 20, "page size")
	urlFlag(votesCmd, &votesUrl)
}

func abciQuery(cmd *cobra.Command, url string, path string, dat []byte) error {
	cli, err := newClient(url)
	if err != nil {
		return err
	}
	res, err := cli.ABCIQuery(cmd.Context(), path, dat)
	if err != nil {
		return err
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("query %s: code %d %s", path, res.Response.Code, res.Response.Log)
	}
	fmt.Printf("height: %d\n", res.Response.Height)
	return printJSON(res.Response.Value)
}

func proposalRun(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid proposal id %q", args[0])
		}
		return abciQuery(cmd, proposalArgs.Url, "/proposals/", types.EncodeQueryIndex(id))
	}
	dat, err := json.Marshal(types.ProposalsRequest{Page: proposalArgs.Page, PageSize: proposalArgs.PageSize})
	if err != nil {
		return err
	}
	return abciQuery(cmd, proposalArgs.Url, "/proposals/", dat)
}

func votesRun(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid proposal id %q", args[0])
	}
	return abciQuery(cmd, votesUrl, "/votes/", types.EncodeQueryIndex(id))
}
