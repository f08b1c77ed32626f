package handler

import (
	"context"

	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type FinalizeProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewFinalizeProposalTxHandler(logger cmtlog.Logger) (h *FinalizeProposalTxHandler) {
	logger = logger.With("module", "finalizeProposalTx")
	h = &FinalizeProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *FinalizeProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	ftx := btx.Tx.(*tx.FinalizeProposalTx)
	_, err1 := st.FinalizeProposal(ftx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx FinalizeProposalTx fail", "proposal", ftx.Proposal, "err", err1)
	}
	res = checkResult(err1)
	return
}

func (h *FinalizeProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	ftx := btx.Tx.(*tx.FinalizeProposalTx)
	event, err := st.FinalizeProposal(ftx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	h.logger.Info("proposal finalized", "proposal", event.Proposal, "status", event.Status,
		"yes", event.YesVotes, "no", event.NoVotes)
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventFinalizeProposal(event)},
	}
	return
}
