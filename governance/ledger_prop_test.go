package governance

import (
	"testing"

	"pgregory.net/rapid"
)

// Random operation sequences against a simple model of the ledger.
func TestLedgerProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := NewLedger[uint8]()
		voted := make(map[VoteKey[uint8]]bool)
		finalized := make(map[uint64]bool)
		var next uint64

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				creator := rapid.Uint8().Draw(t, "creator")
				id := l.CreateProposal(creator, "p")
				if id != next {
					t.Fatalf("got id %d want %d", id, next)
				}
				next++
			case 1:
				voter := rapid.Uint8Range(0, 8).Draw(t, "voter")
				id := rapid.Uint64Range(0, next+1).Draw(t, "proposal")
				yes := rapid.Bool().Draw(t, "yes")
				before, existed := l.GetProposal(id)
				err := l.Vote(voter, id, yes)
				key := VoteKey[uint8]{Voter: voter, Proposal: id}
				switch {
				case id >= next:
					if err == nil || err.(*Error).Kind != KindProposalNotFound {
						t.Fatalf("vote on missing proposal: %v", err)
					}
					if l.HasVoted(voter, id) {
						t.Fatalf("vote record created for missing proposal")
					}
				case finalized[id]:
					if err == nil || err.(*Error).Kind != KindProposalNotActive {
						t.Fatalf("vote on finalized proposal: %v", err)
					}
				case voted[key]:
					if err == nil || err.(*Error).Kind != KindDuplicateVote {
						t.Fatalf("duplicate vote accepted: %v", err)
					}
				default:
					if err != nil {
						t.Fatalf("vote failed: %v", err)
					}
					voted[key] = true
				}
				if err != nil && existed {
					after, _ := l.GetProposal(id)
					if after != before {
						t.Fatalf("failed vote mutated proposal %d", id)
					}
				}
			case 2:
				id := rapid.Uint64Range(0, next+1).Draw(t, "proposal")
				before, existed := l.GetProposal(id)
				status, err := l.FinalizeProposal(id)
				switch {
				case id >= next:
					if err == nil || err.(*Error).Kind != KindProposalNotFound {
						t.Fatalf("finalize missing proposal: %v", err)
					}
				case finalized[id]:
					if err == nil || err.(*Error).Kind != KindAlreadyFinalized {
						t.Fatalf("finalized twice: %v", err)
					}
					after, _ := l.GetProposal(id)
					if after != before {
						t.Fatalf("second finalize mutated proposal %d", id)
					}
				default:
					if err != nil {
						t.Fatalf("finalize failed: %v", err)
					}
					want := StatusRejected
					if existed && before.YesVotes > before.NoVotes {
						want = StatusApproved
					}
					if status != want {
						t.Fatalf("got status %v want %v", status, want)
					}
					finalized[id] = true
				}
			}
			if err := l.CheckInvariants(); err != nil {
				t.Fatal(err)
			}
		}
		if l.NextProposalID() != next {
			t.Fatalf("next id %d want %d", l.NextProposalID(), next)
		}
	})
}
