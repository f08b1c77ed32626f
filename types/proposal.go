package types

import "github.com/calehh/hac-gov/governance"

// ProposalView is the query representation of a proposal.
type ProposalView struct {
	Index       uint64                    `json:"index"`
	Description string                    `json:"description"`
	Creator     string                    `json:"creator"`
	YesVotes    uint64                    `json:"yes_votes"`
	NoVotes     uint64                    `json:"no_votes"`
	Status      governance.ProposalStatus `json:"status"`
}

func NewProposalView(index uint64, p governance.Proposal[string]) ProposalView {
	return ProposalView{
		Index:       index,
		Description: p.Description,
		Creator:     p.Creator,
		YesVotes:    p.YesVotes,
		NoVotes:     p.NoVotes,
		Status:      p.Status,
	}
}

type VoteView struct {
	Proposal uint64 `json:"proposal"`
	Voter    string `json:"voter"`
	Yes      bool   `json:"yes"`
}

// ProposalsRequest pages through proposals, newest first.
type ProposalsRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type ProposalsResponse struct {
	Proposals []ProposalView `json:"proposals"`
	Total     uint64         `json:"total"`
}

// EncodeQueryIndex encodes an account index or proposal id as the minimal
// big-endian query data. Zero encodes as a single zero byte.
func EncodeQueryIndex(idx uint64) []byte {
	dat := make([]byte, 0, 8)
	for shift := 56; shift > 0; shift -= 8 {
		if b := byte(idx >> shift); b != 0 || len(dat) > 0 {
			dat = append(dat, b)
		}
	}
	return append(dat, byte(idx))
}
