package governance

import "fmt"

// ErrorKind enumerates every way a ledger operation can be rejected.
type ErrorKind uint8

const (
	KindProposalNotFound ErrorKind = iota + 1
	KindProposalNotActive
	KindDuplicateVote
	KindAlreadyFinalized
)

func (k ErrorKind) String() string {
	switch k {
	case KindProposalNotFound:
		return "proposal not found"
	case KindProposalNotActive:
		return "proposal not active"
	case KindDuplicateVote:
		return "duplicate vote"
	case KindAlreadyFinalized:
		return "proposal already finalized"
	default:
		return fmt.Sprintf("unknown error kind %d", uint8(k))
	}
}

// Error is returned by every failing ledger operation. The ledger is left
// untouched whenever an Error is returned.
type Error struct {
	Kind     ErrorKind
	Proposal uint64
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: proposal %d", e.Kind, e.Proposal)
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of the proposal id.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrProposalNotFound  = &Error{Kind: KindProposalNotFound}
	ErrProposalNotActive = &Error{Kind: KindProposalNotActive}
	ErrDuplicateVote     = &Error{Kind: KindDuplicateVote}
	ErrAlreadyFinalized  = &Error{Kind: KindAlreadyFinalized}
)

func newError(kind ErrorKind, id uint64) *Error {
	return &Error{Kind: kind, Proposal: id}
}
