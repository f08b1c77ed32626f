package types

import (
	"fmt"
	"strconv"

	"github.com/calehh/hac-gov/governance"
	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventCreateProposalType   = "create_proposal"
	EventVoteType             = "vote"
	EventFinalizeProposalType = "finalize_proposal"
)

type EventCreateProposal struct {
	Proposal    uint64 `json:"proposal"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	Height      uint64 `json:"height"`
}

func EncodeEventCreateProposal(event *EventCreateProposal) abci.Event {
	return abci.Event{
		Type: EventCreateProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "creator", Value: event.Creator, Index: true},
			{Key: "description", Value: event.Description, Index: false},
			{Key: "height", Value: fmt.Sprintf("%v", event.Height), Index: false},
		},
	}
}

func DecodeEventCreateProposal(originEvent abci.Event) *EventCreateProposal {
	if originEvent.Type != EventCreateProposalType {
		return nil
	}
	event := &EventCreateProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "creator":
			event.Creator = v.Value
		case "description":
			event.Description = v.Value
		case "height":
			height, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Height = height
		}
	}
	return event
}

type EventVote struct {
	Proposal uint64 `json:"proposal"`
	Voter    string `json:"voter"`
	Yes      bool   `json:"yes"`
	YesVotes uint64 `json:"yesVotes"`
	NoVotes  uint64 `json:"noVotes"`
}

func EncodeEventVote(event *EventVote) abci.Event {
	return abci.Event{
		Type: EventVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "voter", Value: event.Voter, Index: true},
			{Key: "yes", Value: strconv.FormatBool(event.Yes), Index: false},
			{Key: "yesVotes", Value: fmt.Sprintf("%v", event.YesVotes), Index: false},
			{Key: "noVotes", Value: fmt.Sprintf("%v", event.NoVotes), Index: false},
		},
	}
}

func DecodeEventVote(originEvent abci.Event) *EventVote {
	if originEvent.Type != EventVoteType {
		return nil
	}
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "voter":
			event.Voter = v.Value
		case "yes":
			yes, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Yes = yes
		case "yesVotes":
			n, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.YesVotes = n
		case "noVotes":
			n, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.NoVotes = n
		}
	}
	return event
}

type EventFinalizeProposal struct {
	Proposal uint64                    `json:"proposal"`
	Status   governance.ProposalStatus `json:"status"`
	YesVotes uint64                    `json:"yesVotes"`
	NoVotes  uint64                    `json:"noVotes"`
}

func EncodeEventFinalizeProposal(event *EventFinalizeProposal) abci.Event {
	return abci.Event{
		Type: EventFinalizeProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "status", Value: event.Status.String(), Index: true},
			{Key: "yesVotes", Value: fmt.Sprintf("%v", event.YesVotes), Index: false},
			{Key: "noVotes", Value: fmt.Sprintf("%v", event.NoVotes), Index: false},
		},
	}
}

func DecodeEventFinalizeProposal(originEvent abci.Event) *EventFinalizeProposal {
	if originEvent.Type != EventFinalizeProposalType {
		return nil
	}
	event := &EventFinalizeProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "status":
			status, err := governance.ParseProposalStatus(v.Value)
			if err != nil {
				return nil
			}
			event.Status = status
		case "yesVotes":
			n, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.YesVotes = n
		case "noVotes":
			n, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.NoVotes = n
		}
	}
	return event
}
