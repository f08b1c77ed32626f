package governance

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvariantBroken = errors.New("governance invariant broken")

// Ledger tracks proposals, one vote per (voter, proposal) and the next
// proposal id. It is not safe for concurrent use; hosts serialize access.
type Ledger[A comparable] struct {
	proposals      map[uint64]*Proposal[A]
	votes          map[VoteKey[A]]bool
	nextProposalID uint64
}

func NewLedger[A comparable]() *Ledger[A] {
	return &Ledger[A]{
		proposals:      make(map[uint64]*Proposal[A]),
		votes:          make(map[VoteKey[A]]bool),
		nextProposalID: 0,
	}
}

// CreateProposal allocates the next id and stores an active proposal with
// empty tallies.
func (l *Ledger[A]) CreateProposal(creator A, description string) (id uint64) {
	id = l.nextProposalID
	l.proposals[id] = &Proposal[A]{
		Description: description,
		Status:      StatusActive,
		Creator:     creator,
	}
	l.nextProposalID += 1
	return
}

// CheckVote reports the error Vote would return, without recording anything.
func (l *Ledger[A]) CheckVote(voter A, id uint64) error {
	p, ok := l.proposals[id]
	if !ok {
		return newError(KindProposalNotFound, id)
	}
	if p.Status != StatusActive {
		return newError(KindProposalNotActive, id)
	}
	if _, ok := l.votes[VoteKey[A]{Voter: voter, Proposal: id}]; ok {
		return newError(KindDuplicateVote, id)
	}
	return nil
}

// Vote records a yes (true) or no (false) vote.
func (l *Ledger[A]) Vote(voter A, id uint64, yes bool) error {
	if err := l.CheckVote(voter, id); err != nil {
		return err
	}
	p := l.proposals[id]
	l.votes[VoteKey[A]{Voter: voter, Proposal: id}] = yes
	if yes {
		p.YesVotes += 1
	} else {
		p.NoVotes += 1
	}
	return nil
}

func (l *Ledger[A]) GetProposal(id uint64) (p Proposal[A], ok bool) {
	stored, ok := l.proposals[id]
	if !ok {
		return
	}
	p = *stored
	return
}

// FinalizeProposal moves an active proposal to its terminal status and
// returns it. A proposal can be finalized once.
func (l *Ledger[A]) FinalizeProposal(id uint64) (status ProposalStatus, err error) {
	if err = l.CheckFinalize(id); err != nil {
		return 0, err
	}
	p := l.proposals[id]
	status = p.Outcome()
	p.Status = status
	return
}

func (l *Ledger[A]) CheckFinalize(id uint64) error {
	p, ok := l.proposals[id]
	if !ok {
		return newError(KindProposalNotFound, id)
	}
	if p.Status != StatusActive {
		return newError(KindAlreadyFinalized, id)
	}
	return nil
}

func (l *Ledger[A]) GetProposalDetails(id uint64) (description string, creator A, err error) {
	p, ok := l.proposals[id]
	if !ok {
		err = newError(KindProposalNotFound, id)
		return
	}
	return p.Description, p.Creator, nil
}

func (l *Ledger[A]) NextProposalID() uint64 {
	return l.nextProposalID
}

func (l *Ledger[A]) HasVoted(voter A, id uint64) bool {
	_, ok := l.votes[VoteKey[A]{Voter: voter, Proposal: id}]
	return ok
}

// Proposals returns every proposal id in ascending order.
func (l *Ledger[A]) Proposals() []uint64 {
	ids := make([]uint64, 0, len(l.proposals))
	for id := range l.proposals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// VotesFor returns a copy of the vote records of one proposal keyed by voter.
func (l *Ledger[A]) VotesFor(id uint64) map[A]bool {
	res := make(map[A]bool)
	for k, v := range l.votes {
		if k.Proposal == id {
			res[k.Voter] = v
		}
	}
	return res
}

func (l *Ledger[A]) Clone() *Ledger[A] {
	n := &Ledger[A]{
		proposals:      make(map[uint64]*Proposal[A], len(l.proposals)),
		votes:          make(map[VoteKey[A]]bool, len(l.votes)),
		nextProposalID: l.nextProposalID,
	}
	for id, p := range l.proposals {
		cp := *p
		n.proposals[id] = &cp
	}
	for k, v := range l.votes {
		n.votes[k] = v
	}
	return n
}

// CheckInvariants recomputes every tally from the vote records.
func (l *Ledger[A]) CheckInvariants() error {
	yes := make(map[uint64]uint64, len(l.proposals))
	no := make(map[uint64]uint64, len(l.proposals))
	for k, v := range l.votes {
		if _, ok := l.proposals[k.Proposal]; !ok {
			return fmt.Errorf("%w: vote for unknown proposal %d", ErrInvariantBroken, k.Proposal)
		}
		if v {
			yes[k.Proposal] += 1
		} else {
			no[k.Proposal] += 1
		}
	}
	for id, p := range l.proposals {
		if id >= l.nextProposalID {
			return fmt.Errorf("%w: proposal %d not below next id %d", ErrInvariantBroken, id, l.nextProposalID)
		}
		if p.YesVotes != yes[id] || p.NoVotes != no[id] {
			return fmt.Errorf("%w: proposal %d tallies %d/%d, records %d/%d",
				ErrInvariantBroken, id, p.YesVotes, p.NoVotes, yes[id], no[id])
		}
		if p.Status > StatusRejected {
			return fmt.Errorf("%w: proposal %d has status %v", ErrInvariantBroken, id, p.Status)
		}
	}
	return nil
}

// Restore rebuilds a ledger from records kept by a host. The input maps are
// copied and the result is checked with CheckInvariants.
func Restore[A comparable](next uint64, proposals map[uint64]Proposal[A], votes map[VoteKey[A]]bool) (*Ledger[A], error) {
	l := &Ledger[A]{
		proposals:      make(map[uint64]*Proposal[A], len(proposals)),
		votes:          make(map[VoteKey[A]]bool, len(votes)),
		nextProposalID: next,
	}
	for id, p := range proposals {
		cp := p
		l.proposals[id] = &cp
	}
	for k, v := range votes {
		l.votes[k] = v
	}
	if err := l.CheckInvariants(); err != nil {
		return nil, err
	}
	return l, nil
}
