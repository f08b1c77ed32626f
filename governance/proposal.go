package governance

import (
	"encoding/json"
	"fmt"
)

type ProposalStatus uint8

const (
	StatusActive ProposalStatus = iota
	StatusApproved
	StatusRejected
)

func (s ProposalStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s ProposalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s ProposalStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ProposalStatus) UnmarshalJSON(dat []byte) error {
	var str string
	if err := json.Unmarshal(dat, &str); err != nil {
		return err
	}
	st, err := ParseProposalStatus(str)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func ParseProposalStatus(str string) (ProposalStatus, error) {
	switch str {
	case "active":
		return StatusActive, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	}
	return 0, fmt.Errorf("unknown proposal status %q", str)
}

// Proposal is a governance item with its running tallies. Values handed out
// by the ledger are copies.
type Proposal[A comparable] struct {
	Description string         `json:"description"`
	YesVotes    uint64         `json:"yes_votes"`
	NoVotes     uint64         `json:"no_votes"`
	Status      ProposalStatus `json:"status"`
	Creator     A              `json:"creator"`
}

// Outcome is the terminal status the tallies would produce right now.
// Ties resolve to rejected.
func (p *Proposal[A]) Outcome() ProposalStatus {
	if p.YesVotes > p.NoVotes {
		return StatusApproved
	}
	return StatusRejected
}

// VoteKey identifies a single vote record.
type VoteKey[A comparable] struct {
	Voter    A
	Proposal uint64
}
