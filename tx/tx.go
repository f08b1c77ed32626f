package tx

import (
	"encoding/json"
	"fmt"
)

// GovTx is the signed envelope every governance transaction travels in.
// Account is the index of the sending account in state.
type GovTx struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Account uint64    `json:"account"`
	Tx      any       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

type CreateProposalTx struct {
	Description string `json:"description"`
}

type VoteTx struct {
	Proposal uint64 `json:"proposal"`
	Yes      bool   `json:"yes"`
}

type FinalizeProposalTx struct {
	Proposal uint64 `json:"proposal"`
}

type govTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Account uint64    `json:"account"`
	Tx      *Tx       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

// SigData is the payload covered by the signature: the tx with its
// signatures replaced by the chain id.
func (tx *GovTx) SigData(chainId []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{chainId}
	dat, err = json.Marshal(ntx)
	return
}

// ValidateBasic performs the stateless checks on the body.
func (tx *GovTx) ValidateBasic() error {
	if tx.Version > GovTxVersion1 {
		return ErrUnsupportedTxVersion
	}
	switch body := tx.Tx.(type) {
	case *CreateProposalTx:
		if tx.Type == GovTxTypeCreateProposal {
			if body.Description == "" {
				return ErrEmptyDescription
			}
			if len(body.Description) > MaxDescriptionLen {
				return ErrDescriptionTooLong
			}
			return nil
		}
	case *VoteTx:
		if tx.Type == GovTxTypeVote {
			return nil
		}
	case *FinalizeProposalTx:
		if tx.Type == GovTxTypeFinalizeProposal {
			return nil
		}
	}
	return fmt.Errorf("%w: body %T for type %v", ErrInvalidTx, tx.Tx, tx.Type)
}

func parseGovTxType(dat []byte) GovTxType {
	var tx struct {
		Type GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown
	}
	return tx.Type
}

func unmarshalGovTx[Tx any](dat []byte) (btx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Tx == nil {
		err = fmt.Errorf("%w: missing body", ErrInvalidTx)
		return
	}
	btx = new(GovTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Account = txt.Account
	btx.Tx = txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (btx *GovTx, err error) {
	tp := parseGovTxType(dat)
	switch tp {
	case GovTxTypeCreateProposal:
		btx, err = unmarshalGovTx[CreateProposalTx](dat)
	case GovTxTypeVote:
		btx, err = unmarshalGovTx[VoteTx](dat)
	case GovTxTypeFinalizeProposal:
		btx, err = unmarshalGovTx[FinalizeProposalTx](dat)
	default:
		return nil, ErrUnsupportedTxType
	}
	if err != nil {
		return nil, err
	}
	if err = btx.ValidateBasic(); err != nil {
		return nil, err
	}
	return
}

func MarshalGovTx(btx *GovTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
