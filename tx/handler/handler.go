package handler

import (
	"context"
	"errors"

	"github.com/calehh/hac-gov/governance"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// TxHandler applies one tx type. Check runs against a state that must not
// change; Process applies the tx to the working state of a block.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
}

const (
	CodeOK uint32 = iota
	CodeFail
	CodeProposalNotFound
	CodeProposalNotActive
	CodeDuplicateVote
	CodeAlreadyFinalized
)

// Code maps a tx failure onto the code reported to cometbft.
func Code(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	var gerr *governance.Error
	if !errors.As(err, &gerr) {
		return CodeFail
	}
	switch gerr.Kind {
	case governance.KindProposalNotFound:
		return CodeProposalNotFound
	case governance.KindProposalNotActive:
		return CodeProposalNotActive
	case governance.KindDuplicateVote:
		return CodeDuplicateVote
	case governance.KindAlreadyFinalized:
		return CodeAlreadyFinalized
	}
	return CodeFail
}

func checkResult(err error) (res *abcitypes.ResponseCheckTx) {
	res = &abcitypes.ResponseCheckTx{Code: Code(err)}
	if err != nil {
		res.Log = err.Error()
	}
	return
}

func NewTxHandlers(logger cmtlog.Logger) map[tx.GovTxType]TxHandler {
	return map[tx.GovTxType]TxHandler{
		tx.GovTxTypeCreateProposal:   NewCreateProposalTxHandler(logger),
		tx.GovTxTypeVote:             NewVoteTxHandler(logger),
		tx.GovTxTypeFinalizeProposal: NewFinalizeProposalTxHandler(logger),
	}
}
