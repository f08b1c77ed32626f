package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx/handler"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const (
	CodeUnknownQuery  = 404
	DefaultQueryPage  = 20
	MaxQueryPageSize  = 100
	maxIndexQueryData = 8
)

func (app *GovApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = CodeUnknownQuery
		res.Log = "unknown query path " + req.Path
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// decodeIndex reads a big-endian integer of at most 8 bytes.
func decodeIndex(dat []byte) (idx uint64) {
	for _, v := range dat {
		idx <<= 8
		idx |= uint64(v)
	}
	return
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query takes either a 20 byte address or a big-endian account index.
func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == 20 {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if len(req.Data) <= maxIndexQueryData {
		a, height, _ = q.db.GetAccountByIndex(decodeIndex(req.Data))
	}
	if a != nil {
		res.Value, _ = a.MarshalJSON()
		res.Height = int64(height)
	} else {
		res.Code = handler.CodeFail
		res.Log = state.ErrAccountNoexists.Error()
	}
	return
}

type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query returns one proposal when the data is a big-endian proposal id, or a
// page of proposals, newest first, when the data is a JSON ProposalsRequest.
func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) > 0 && len(req.Data) <= maxIndexQueryData {
		view, height, err1 := q.db.GetProposal(decodeIndex(req.Data))
		if err1 != nil {
			res.Code = handler.Code(err1)
			res.Log = err1.Error()
			return
		}
		res.Value, _ = json.Marshal(view)
		res.Height = int64(height)
		return
	}

	preq := types.ProposalsRequest{PageSize: DefaultQueryPage}
	if len(req.Data) > 0 {
		if err1 := json.Unmarshal(req.Data, &preq); err1 != nil {
			res.Code = handler.CodeFail
			res.Log = err1.Error()
			return
		}
	}
	if preq.PageSize <= 0 || preq.PageSize > MaxQueryPageSize {
		preq.PageSize = MaxQueryPageSize
	}
	views, total, height := q.db.ListProposals(preq.Page, preq.PageSize)
	res.Value, _ = json.Marshal(types.ProposalsResponse{Proposals: views, Total: total})
	res.Height = int64(height)
	return
}

type VoteQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewVoteQuerier(db *state.StateDB, logger cmtlog.Logger) (q *VoteQuerier) {
	q = &VoteQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query returns the vote records of the proposal whose big-endian id is the
// request data.
func (q *VoteQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) > maxIndexQueryData {
		res.Code = handler.CodeFail
		res.Log = "invalid proposal id"
		return
	}
	votes, height, err1 := q.db.GetVotes(decodeIndex(req.Data))
	if err1 != nil {
		res.Code = handler.Code(err1)
		res.Log = err1.Error()
		return
	}
	res.Value, _ = json.Marshal(votes)
	res.Height = int64(height)
	return
}
