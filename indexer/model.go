package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Id             uint64 `gorm:"primary_key" json:"-"`
	ProposalId     uint64 `gorm:"unique_index" json:"id"`
	Creator        string `gorm:"index" json:"creator"`
	Description    string `gorm:"type:text" json:"description"`
	YesVotes       uint64 `json:"yes_votes"`
	NoVotes        uint64 `json:"no_votes"`
	Status         string `gorm:"index" json:"status"`
	CreateHeight   uint64 `json:"create_height"`
	FinalizeHeight uint64 `json:"finalize_height"`
}

// ProposalVote is unique per (proposal, voter), mirroring the ledger.
type ProposalVote struct {
	Id         uint64 `gorm:"primary_key" json:"-"`
	ProposalId uint64 `gorm:"unique_index:idx_proposal_voter" json:"proposal"`
	Voter      string `gorm:"unique_index:idx_proposal_voter" json:"voter"`
	Yes        bool   `json:"yes"`
	Height     uint64 `json:"height"`
}
