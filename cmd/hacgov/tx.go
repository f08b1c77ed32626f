package main

import (
	"fmt"
	"strconv"

	"github.com/calehh/hac-gov/tx"
	"github.com/spf13/cobra"
)

var proposeArgs txArguments

var proposeCmd = &cobra.Command{
	Use:   "propose <description>",
	Short: "Create a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(cmd, &proposeArgs, tx.GovTxTypeCreateProposal, &tx.CreateProposalTx{Description: args[0]})
	},
}

var voteArgs txArguments

var voteCmd = &cobra.Command{
	Use:   "vote <proposal> <yes|no>",
	Short: "Vote on an active proposal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid proposal id %q", args[0])
		}
		yes, err := parseBallot(args[1])
		if err != nil {
			return err
		}
		return sendTx(cmd, &voteArgs, tx.GovTxTypeVote, &tx.VoteTx{Proposal: id, Yes: yes})
	},
}

var finalizeArgs txArguments

var finalizeCmd = &cobra.Command{
	Use:   "finalize <proposal>",
	Short: "Close an active proposal and record its outcome",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid proposal id %q", args[0])
		}
		return sendTx(cmd, &finalizeArgs, tx.GovTxTypeFinalizeProposal, &tx.FinalizeProposalTx{Proposal: id})
	},
}

func init() {
	txFlags(proposeCmd, &proposeArgs)
	txFlags(voteCmd, &voteArgs)
	txFlags(finalizeCmd, &finalizeArgs)
}

func parseBallot(s string) (bool, error) {
	switch s {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid vote %q, want yes or no", s)
}
