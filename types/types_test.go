package types

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/calehh/hac-gov/governance"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCodec(t *testing.T) {
	create := &EventCreateProposal{Proposal: 3, Creator: "ABCD", Description: "raise limits", Height: 12}
	assert.Equal(t, create, DecodeEventCreateProposal(EncodeEventCreateProposal(create)))

	vote := &EventVote{Proposal: 3, Voter: "EF01", Yes: true, YesVotes: 2, NoVotes: 1}
	assert.Equal(t, vote, DecodeEventVote(EncodeEventVote(vote)))

	fin := &EventFinalizeProposal{Proposal: 3, Status: governance.StatusApproved, YesVotes: 2, NoVotes: 1}
	assert.Equal(t, fin, DecodeEventFinalizeProposal(EncodeEventFinalizeProposal(fin)))
}

func TestDecodeEventRejectsMalformed(t *testing.T) {
	bad := abci.Event{
		Type:       EventVoteType,
		Attributes: []abci.EventAttribute{{Key: "yes", Value: "maybe"}},
	}
	assert.Nil(t, DecodeEventVote(bad))

	bad = abci.Event{
		Type:       EventFinalizeProposalType,
		Attributes: []abci.EventAttribute{{Key: "status", Value: "pending"}},
	}
	assert.Nil(t, DecodeEventFinalizeProposal(bad))

	// wrong type
	assert.Nil(t, DecodeEventCreateProposal(EncodeEventVote(&EventVote{})))
}

func TestParseGenesisAppState(t *testing.T) {
	st, err := ParseGenesisAppState(nil)
	require.NoError(t, err)
	assert.Empty(t, st.Accounts)

	pk := ed25519.GenPrivKey().PubKey().Bytes()
	dat, err := json.Marshal(GenesisAppState{Accounts: []GenesisAccount{{PubKey: pk}}})
	require.NoError(t, err)
	st, err = ParseGenesisAppState(dat)
	require.NoError(t, err)
	require.Len(t, st.Accounts, 1)
	assert.Equal(t, pk, st.Accounts[0].PubKey)

	_, err = ParseGenesisAppState([]byte(`{"accounts":[{"pub_key":"AQI="}]}`))
	assert.Error(t, err)
}

func TestExportGenesisFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "genesis.json")
	assert.Error(t, ExportGenesisFile(&GenesisDoc{}, file))

	doc := &GenesisDoc{ChainID: "test-chain"}
	require.NoError(t, ExportGenesisFile(doc, file))
	assert.Equal(t, int64(1), doc.InitialHeight)
	assert.False(t, doc.GenesisTime.IsZero())
}

func TestNewProposalView(t *testing.T) {
	v := NewProposalView(4, governance.Proposal[string]{Description: "d", Creator: "c", YesVotes: 1, Status: governance.StatusRejected})
	dat, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":4,"description":"d","creator":"c","yes_votes":1,"no_votes":0,"status":"rejected"}`, string(dat))
}

func TestEncodeQueryIndex(t *testing.T) {
	assert.Equal(t, []byte{0}, EncodeQueryIndex(0))
	assert.Equal(t, []byte{7}, EncodeQueryIndex(7))
	assert.Equal(t, []byte{1, 0}, EncodeQueryIndex(256))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 2}, EncodeQueryIndex(1<<56+2))
}
