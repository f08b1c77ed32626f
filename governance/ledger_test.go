package governance

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernanceShouldWork(t *testing.T) {
	const alice, bob, charlie, dave = 1, 2, 3, 4
	l := NewLedger[uint64]()

	id := l.CreateProposal(alice, "Increase validator rewards")
	require.Equal(t, uint64(0), id)

	require.NoError(t, l.Vote(alice, id, true))
	require.NoError(t, l.Vote(bob, id, true))
	require.NoError(t, l.Vote(charlie, id, false))

	p, ok := l.GetProposal(id)
	require.True(t, ok)
	assert.Equal(t, uint64(2), p.YesVotes)
	assert.Equal(t, uint64(1), p.NoVotes)
	assert.Equal(t, StatusActive, p.Status)

	status, err := l.FinalizeProposal(id)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, status)

	p, _ = l.GetProposal(id)
	assert.Equal(t, StatusApproved, p.Status)

	err = l.Vote(dave, id, true)
	assert.ErrorIs(t, err, ErrProposalNotActive)

	_, err = l.FinalizeProposal(id)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	require.NoError(t, l.CheckInvariants())
}

func TestCreateProposalIds(t *testing.T) {
	l := NewLedger[string]()
	for i := 0; i < 5; i++ {
		assert.Equal(t, uint64(i), l.CreateProposal("alice", "p"))
	}
	// failing operations do not consume ids
	_ = l.Vote("bob", 99, true)
	_, _ = l.FinalizeProposal(99)
	assert.Equal(t, uint64(5), l.CreateProposal("alice", "p"))
	assert.Equal(t, uint64(6), l.NextProposalID())
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5}, l.Proposals())
}

func TestCreateProposalOpaqueDescription(t *testing.T) {
	l := NewLedger[string]()
	long := strings.Repeat("x", 10000)
	assert.Equal(t, uint64(0), l.CreateProposal("alice", ""))
	assert.Equal(t, uint64(1), l.CreateProposal("alice", long))
	desc, creator, err := l.GetProposalDetails(1)
	require.NoError(t, err)
	assert.Equal(t, long, desc)
	assert.Equal(t, "alice", creator)
}

func TestVoteErrors(t *testing.T) {
	l := NewLedger[string]()

	err := l.Vote("alice", 0, true)
	require.ErrorIs(t, err, ErrProposalNotFound)
	assert.False(t, l.HasVoted("alice", 0))

	id := l.CreateProposal("alice", "text")
	require.NoError(t, l.Vote("bob", id, false))

	err = l.Vote("bob", id, true)
	require.ErrorIs(t, err, ErrDuplicateVote)
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, KindDuplicateVote, gerr.Kind)
	assert.Equal(t, id, gerr.Proposal)

	p, _ := l.GetProposal(id)
	assert.Equal(t, uint64(0), p.YesVotes)
	assert.Equal(t, uint64(1), p.NoVotes)
	assert.Equal(t, map[string]bool{"bob": false}, l.VotesFor(id))
}

func TestDuplicateVoteAfterFinalize(t *testing.T) {
	l := NewLedger[string]()
	id := l.CreateProposal("alice", "text")
	require.NoError(t, l.Vote("bob", id, true))
	_, err := l.FinalizeProposal(id)
	require.NoError(t, err)

	// status is checked before the vote record
	assert.ErrorIs(t, l.Vote("bob", id, true), ErrProposalNotActive)
	assert.True(t, l.HasVoted("bob", id))
}

func TestFinalizeDecisionRule(t *testing.T) {
	cases := []struct {
		name    string
		yes, no int
		want    ProposalStatus
	}{
		{"majority yes", 2, 1, StatusApproved},
		{"tie", 1, 1, StatusRejected},
		{"no votes", 0, 0, StatusRejected},
		{"majority no", 1, 3, StatusRejected},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := NewLedger[int]()
			id := l.CreateProposal(0, c.name)
			voter := 1
			for i := 0; i < c.yes; i++ {
				require.NoError(t, l.Vote(voter, id, true))
				voter++
			}
			for i := 0; i < c.no; i++ {
				require.NoError(t, l.Vote(voter, id, false))
				voter++
			}
			status, err := l.FinalizeProposal(id)
			require.NoError(t, err)
			assert.Equal(t, c.want, status)
		})
	}
}

func TestFinalizeErrors(t *testing.T) {
	l := NewLedger[string]()
	_, err := l.FinalizeProposal(3)
	assert.ErrorIs(t, err, ErrProposalNotFound)

	id := l.CreateProposal("alice", "text")
	require.NoError(t, l.Vote("bob", id, false))
	status, err := l.FinalizeProposal(id)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, status)

	_, err = l.FinalizeProposal(id)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.NotErrorIs(t, err, ErrProposalNotFound)
	p, _ := l.GetProposal(id)
	assert.Equal(t, StatusRejected, p.Status)
	assert.Equal(t, uint64(1), p.NoVotes)
}

func TestGetProposalDetails(t *testing.T) {
	l := NewLedger[string]()
	_, _, err := l.GetProposalDetails(0)
	require.ErrorIs(t, err, ErrProposalNotFound)

	id := l.CreateProposal("alice", "raise limits")
	desc, creator, err := l.GetProposalDetails(id)
	require.NoError(t, err)
	assert.Equal(t, "raise limits", desc)
	assert.Equal(t, "alice", creator)
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	l := NewLedger[string]()
	id := l.CreateProposal("alice", "text")

	p, _ := l.GetProposal(id)
	p.YesVotes = 10
	p.Status = StatusApproved
	p.Description = "changed"

	stored, _ := l.GetProposal(id)
	assert.Equal(t, uint64(0), stored.YesVotes)
	assert.Equal(t, StatusActive, stored.Status)
	assert.Equal(t, "text", stored.Description)

	votes := l.VotesFor(id)
	votes["mallory"] = true
	assert.False(t, l.HasVoted("mallory", id))
}

func TestClone(t *testing.T) {
	l := NewLedger[string]()
	id := l.CreateProposal("alice", "text")
	require.NoError(t, l.Vote("bob", id, true))

	c := l.Clone()
	require.NoError(t, c.Vote("carol", id, false))
	_, err := c.FinalizeProposal(id)
	require.NoError(t, err)
	c.CreateProposal("carol", "other")

	p, _ := l.GetProposal(id)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, uint64(0), p.NoVotes)
	assert.False(t, l.HasVoted("carol", id))
	assert.Equal(t, uint64(1), l.NextProposalID())
	assert.Equal(t, uint64(2), c.NextProposalID())
}

func TestRestore(t *testing.T) {
	proposals := map[uint64]Proposal[string]{
		0: {Description: "a", YesVotes: 1, Status: StatusApproved, Creator: "alice"},
		1: {Description: "b", NoVotes: 1, Status: StatusActive, Creator: "bob"},
	}
	votes := map[VoteKey[string]]bool{
		{Voter: "alice", Proposal: 0}: true,
		{Voter: "alice", Proposal: 1}: false,
	}
	l, err := Restore(2, proposals, votes)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), l.CreateProposal("carol", "c"))
	assert.ErrorIs(t, l.Vote("alice", 1, true), ErrDuplicateVote)
	assert.ErrorIs(t, l.Vote("bob", 0, true), ErrProposalNotActive)

	// restored ledger owns its maps
	delete(votes, VoteKey[string]{Voter: "alice", Proposal: 0})
	assert.True(t, l.HasVoted("alice", 0))

	_, err = Restore(2, proposals, map[VoteKey[string]]bool{})
	assert.ErrorIs(t, err, ErrInvariantBroken)

	_, err = Restore(1, proposals, votes)
	assert.ErrorIs(t, err, ErrInvariantBroken)

	_, err = Restore(2, map[uint64]Proposal[string]{}, map[VoteKey[string]]bool{{Voter: "x", Proposal: 0}: true})
	assert.ErrorIs(t, err, ErrInvariantBroken)
}

func TestProposalStatusJSON(t *testing.T) {
	for _, s := range []ProposalStatus{StatusActive, StatusApproved, StatusRejected} {
		dat, err := s.MarshalJSON()
		require.NoError(t, err)
		var got ProposalStatus
		require.NoError(t, got.UnmarshalJSON(dat))
		assert.Equal(t, s, got)
	}
	var s ProposalStatus
	assert.Error(t, s.UnmarshalJSON([]byte(`"pending"`)))
	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusRejected.Terminal())
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "duplicate vote: proposal 7", newError(KindDuplicateVote, 7).Error())
	assert.Equal(t, "unknown error kind 9", ErrorKind(9).String())
}

func TestCheckWithoutMutation(t *testing.T) {
	l := NewLedger[string]()
	assert.ErrorIs(t, l.CheckVote("bob", 0), ErrProposalNotFound)
	assert.ErrorIs(t, l.CheckFinalize(0), ErrProposalNotFound)

	id := l.CreateProposal("alice", "text")
	require.NoError(t, l.CheckVote("bob", id))
	assert.False(t, l.HasVoted("bob", id))
	require.NoError(t, l.CheckFinalize(id))
	p, _ := l.GetProposal(id)
	assert.Equal(t, StatusActive, p.Status)

	require.NoError(t, l.Vote("bob", id, true))
	assert.ErrorIs(t, l.CheckVote("bob", id), ErrDuplicateVote)
	_, err := l.FinalizeProposal(id)
	require.NoError(t, err)
	assert.ErrorIs(t, l.CheckVote("carol", id), ErrProposalNotActive)
	assert.ErrorIs(t, l.CheckFinalize(id), ErrAlreadyFinalized)
}
