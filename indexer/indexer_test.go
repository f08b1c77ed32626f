package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/calehh/hac-gov/governance"
	gov_types "github.com/calehh/hac-gov/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	blocks map[int64][]abci.Event
	latest int64
}

func (s *fakeSource) LatestHeight(ctx context.Context) (int64, error) {
	return s.latest, nil
}

func (s *fakeSource) BlockEvents(ctx context.Context, height int64) ([]abci.Event, error) {
	return s.blocks[height], nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		blocks: map[int64][]abci.Event{
			1: {
				gov_types.EncodeEventCreateProposal(&gov_types.EventCreateProposal{Proposal: 0, Creator: "AA", Description: "first", Height: 1}),
				gov_types.EncodeEventCreateProposal(&gov_types.EventCreateProposal{Proposal: 1, Creator: "BB", Description: "second", Height: 1}),
			},
			2: {
				gov_types.EncodeEventVote(&gov_types.EventVote{Proposal: 0, Voter: "AA", Yes: true, YesVotes: 1}),
				gov_types.EncodeEventVote(&gov_types.EventVote{Proposal: 0, Voter: "BB", Yes: false, YesVotes: 1, NoVotes: 1}),
				gov_types.EncodeEventVote(&gov_types.EventVote{Proposal: 1, Voter: "AA", Yes: true, YesVotes: 1}),
			},
			4: {
				gov_types.EncodeEventFinalizeProposal(&gov_types.EventFinalizeProposal{Proposal: 0, Status: governance.StatusRejected, YesVotes: 1, NoVotes: 1}),
				{Type: "unrelated"},
			},
		},
		latest: 4,
	}
}

func newTestIndexer(t *testing.T, src BlockSource, dbPath string) *ChainIndexer {
	t.Helper()
	c, err := NewChainIndexer(cmtlog.NewNopLogger(), dbPath, src, time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSync(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "indexer.db")
	c := newTestIndexer(t, newFakeSource(), dbPath)
	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, int64(5), c.Height)

	p, err := c.getProposalById(0)
	require.NoError(t, err)
	assert.Equal(t, "AA", p.Creator)
	assert.Equal(t, "first", p.Description)
	assert.Equal(t, governance.StatusRejected.String(), p.Status)
	assert.Equal(t, uint64(1), p.YesVotes)
	assert.Equal(t, uint64(1), p.NoVotes)
	assert.Equal(t, uint64(1), p.CreateHeight)
	assert.Equal(t, uint64(4), p.FinalizeHeight)

	p, err = c.getProposalById(1)
	require.NoError(t, err)
	assert.Equal(t, governance.StatusActive.String(), p.Status)

	votes, total, err := c.getVotesByProposal(0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, votes, 2)
	assert.Equal(t, "AA", votes[0].Voter)
	assert.True(t, votes[0].Yes)

	proposals, total, err := c.getProposals("", governance.StatusActive.String(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, proposals, 1)
	assert.Equal(t, uint64(1), proposals[0].ProposalId)

	proposals, total, err = c.getProposals("", "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, uint64(1), proposals[0].ProposalId)
	assert.Equal(t, uint64(0), proposals[1].ProposalId)
}

func TestReindexIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "indexer.db")
	src := newFakeSource()
	c := newTestIndexer(t, src, dbPath)
	require.NoError(t, c.Sync(context.Background()))

	// replay the blocks as if the height had not been saved
	require.NoError(t, c.indexBlock(1, src.blocks[1]))
	require.NoError(t, c.indexBlock(2, src.blocks[2]))

	_, total, err := c.getVotesByProposal(0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	_, total, err = c.getProposals("", "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
}

func TestResumeFromSavedHeight(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "indexer.db")
	src := newFakeSource()
	src.latest = 2
	c, err := NewChainIndexer(cmtlog.NewNopLogger(), dbPath, src, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, c.Sync(context.Background()))
	require.NoError(t, c.Close())

	src.latest = 4
	c = newTestIndexer(t, src, dbPath)
	assert.Equal(t, int64(3), c.Height)
	require.NoError(t, c.Sync(context.Background()))
	p, err := c.getProposalById(0)
	require.NoError(t, err)
	assert.Equal(t, governance.StatusRejected.String(), p.Status)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	dat, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(dat))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestIndexer(t, newFakeSource(), filepath.Join(t.TempDir(), "indexer.db"))
	require.NoError(t, c.Sync(context.Background()))
	s := NewService("127.0.0.1:0", c)

	id := uint64(0)
	w := postJSON(t, s.engine, "/getProposals", GetProposalsReq{ProposalId: &id})
	require.Equal(t, http.StatusOK, w.Code)
	var pres GetProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pres))
	require.Len(t, pres.Proposals, 1)
	assert.Equal(t, "first", pres.Proposals[0].Proposal.Description)
	assert.Len(t, pres.Proposals[0].Votes, 2)

	w = postJSON(t, s.engine, "/getProposals", GetProposalsReq{Creator: "BB"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pres))
	assert.Equal(t, uint64(1), pres.Total)

	missing := uint64(9)
	w = postJSON(t, s.engine, "/getProposals", GetProposalsReq{ProposalId: &missing})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postJSON(t, s.engine, "/getVotes", GetVotesReq{ProposalId: &id, PageSize: 1})
	require.Equal(t, http.StatusOK, w.Code)
	var vres GetVotesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vres))
	assert.Equal(t, uint64(2), vres.Total)
	assert.Len(t, vres.Votes, 1)

	w = postJSON(t, s.engine, "/getVotes", GetVotesReq{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
