package fpc

import (
	"time"

	"github.com/Adam-Gleave/bee/vote"
)

type (
	// Event is one of RoundExecutedEvent, FinalizedEvent or FailedEvent,
	// delivered on the engine's outbound event channel.
	Event interface {
		fpcEvent()
	}

	// RoundExecutedEvent reports the outcome of one voting round.
	RoundExecutedEvent struct {
		Stats RoundStats
	}

	// FinalizedEvent reports that a vote has settled on its final opinion.
	FinalizedEvent struct {
		OpinionEvent
	}

	// FailedEvent reports that a vote exhausted its round budget without
	// finalizing.
	FailedEvent struct {
		OpinionEvent
	}
)

func (RoundExecutedEvent) fpcEvent() {}
func (FinalizedEvent) fpcEvent()     {}
func (FailedEvent) fpcEvent()        {}

// OpinionEvent carries the terminal state of a vote.
type OpinionEvent struct {
	// Object is the disputed object the vote was about.
	Object vote.Object

	// Opinion is the last opinion formed before the vote ended.
	Opinion vote.Opinion

	// Context is a snapshot of the vote context at the time it ended.
	Context VoteContext
}

// RoundStats describes a single executed round.
type RoundStats struct {
	// Duration is the wall-clock time the round took.
	Duration time.Duration

	// RandUsed is the random draw the round's thresholds were derived from.
	RandUsed float64

	// ActiveVoteContexts snapshots the contexts still being voted on at the
	// end of the round. Contexts finalized or failed during the round are
	// not included.
	ActiveVoteContexts map[vote.Object]*VoteContext

	// QueriedOpinions lists the opinions gathered this round, per giver.
	QueriedOpinions []vote.QueriedOpinions
}
