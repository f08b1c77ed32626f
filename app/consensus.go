package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/tx/handler"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
	ErrNoPendingState      = errors.New("commit without finalized block")
)

func (app *GovApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.GovTx, h handler.TxHandler, err error) {
	btx, err = tx.UnmarshalGovTx(txDat)
	if err != nil {
		return
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		err = tx.ErrUnsupportedTxType
		return
	}
	_, err = st.Verify(btx, allowNonceGap)
	return
}

// CheckTx validates a tx against the last committed state. Nonces ahead of
// the committed one are accepted so an account can queue several txs.
func (app *GovApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	err = app.db.View(func(st *state.State) error {
		btx, h, err := app.parseTx(st, check.Tx, true)
		if err != nil {
			app.logger.Info("check tx, parse fail", "err", err)
			res = &abcitypes.ResponseCheckTx{Code: handler.CodeFail, Log: err.Error()}
			return nil
		}
		app.logger.Debug("check tx", "type", btx.Type, "account", btx.Account, "nonce", btx.Nonce)
		res, err = h.Check(ctx, st, btx)
		return err
	})
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: handler.CodeFail, Log: err.Error()}
		err = nil
	}
	return
}

// PrepareProposal applies every candidate tx to a clone of the working state
// and keeps only those that succeed, in mempool order.
func (app *GovApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.db.NewState()
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			app.logger.Info("PrepareProposal max tx bytes reached", "kept", len(txs))
			break
		}
		stTmp := st.Clone()
		btx, h, err := app.parseTx(stTmp, stx, false)
		if err != nil {
			app.logger.Info("prepare tx dropped, parse fail", "err", err)
			continue
		}
		_, err = h.Process(ctx, stTmp, btx)
		if err != nil {
			app.logger.Info("prepare tx dropped", "type", btx.Type, "err", err)
			continue
		}
		st = stTmp
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *GovApp) process(ctx context.Context, st *state.State, txs [][]byte) (err error) {
	for i, stx := range txs {
		btx, h, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Error("unexpected tx, parse fail", "index", i, "err", err)
			return fmt.Errorf("%w: tx %d: %v", ErrUnexpectedTxProcess, i, err)
		}
		_, err = h.Process(ctx, st, btx)
		if err != nil {
			app.logger.Error("unexpected process tx fail", "index", i, "type", btx.Type, "err", err)
			return fmt.Errorf("%w: tx %d: %v", ErrUnexpectedTxProcess, i, err)
		}
	}
	return
}

// ProcessProposal rejects any block carrying a tx that would fail.
func (app *GovApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	if len(proposal.Txs) == 0 {
		res.Status = abcitypes.ResponseProcessProposal_ACCEPT
		return res, nil
	}
	st := app.db.NewState()
	err = app.process(ctx, st, proposal.Txs)
	if err != nil {
		app.logger.Error("proposal rejected", "height", proposal.Height, "err", err)
		return res, nil
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	app.logger.Info("proposal accepted", "height", proposal.Height)
	return res, nil
}

func (app *GovApp) finalize(ctx context.Context, st *state.State, txs [][]byte) (res []*abcitypes.ExecTxResult) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		btx, h, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Error("finalize tx, parse fail", "index", i, "err", err)
			res[i] = &abcitypes.ExecTxResult{Code: handler.CodeFail, Log: err.Error()}
			continue
		}
		result, err := h.Process(ctx, st, btx)
		if err != nil {
			app.logger.Error("finalize tx fail", "index", i, "type", btx.Type, "err", err)
			res[i] = &abcitypes.ExecTxResult{Code: handler.Code(err), Log: err.Error()}
			continue
		}
		res[i] = result
	}
	return
}

// FinalizeBlock applies the decided block. Failing txs are reported with
// their code and leave the state untouched.
func (app *GovApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.db.NewState()
	res := app.finalize(ctx, st, req.Txs)
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.st = st
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *GovApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrNoPendingState
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.logger.Info("Commit", "height", app.st.Header().Height)
	app.st = nil
	return &abcitypes.ResponseCommit{}, nil
}
