package tx

import (
	"errors"
)

type GovTxType uint8

const (
	GovTxTypeUnknown          GovTxType = 0
	GovTxTypeCreateProposal   GovTxType = 1
	GovTxTypeVote             GovTxType = 2
	GovTxTypeFinalizeProposal GovTxType = 3
)

func (t GovTxType) String() string {
	switch t {
	case GovTxTypeCreateProposal:
		return "create_proposal"
	case GovTxTypeVote:
		return "vote"
	case GovTxTypeFinalizeProposal:
		return "finalize_proposal"
	default:
		return "unknown"
	}
}

const (
	GovTxVersion0 uint8 = 0
	GovTxVersion1 uint8 = 1
)

const MaxDescriptionLen = 4096

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrEmptyDescription     = errors.New("proposal description is empty")
	ErrDescriptionTooLong   = errors.New("proposal description too long")
)
