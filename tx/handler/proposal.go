package handler

import (
	"context"

	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type CreateProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewCreateProposalTxHandler(logger cmtlog.Logger) (h *CreateProposalTxHandler) {
	logger = logger.With("module", "createProposalTx")
	h = &CreateProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *CreateProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	ptx := btx.Tx.(*tx.CreateProposalTx)
	_, err1 := st.CreateProposal(ptx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx CreateProposalTx fail", "err", err1)
	}
	res = checkResult(err1)
	return
}

func (h *CreateProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	ptx := btx.Tx.(*tx.CreateProposalTx)
	event, err := st.CreateProposal(ptx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	h.logger.Info("proposal created", "proposal", event.Proposal, "creator", event.Creator)
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventCreateProposal(event)},
	}
	return
}
