package vote

import "errors"

var (
	// ErrVoteOngoing is returned when an object is submitted while a vote
	// for it is already pending or active.
	ErrVoteOngoing = errors.New("vote already ongoing for object")

	// ErrVotingNotFound is returned when an object is neither pending nor
	// active.
	ErrVotingNotFound = errors.New("no ongoing vote for object")

	// ErrNoOpinionGivers is returned by a round when opinions need querying
	// but no opinion givers are available.
	ErrNoOpinionGivers = errors.New("no opinion givers available")

	// ErrNoInitialOpinions is returned when a vote context is constructed
	// without a seed opinion.
	ErrNoInitialOpinions = errors.New("vote context has no initial opinions")

	// ErrEventSend is returned when an event cannot be delivered because the
	// event channel is full or unavailable.
	ErrEventSend = errors.New("failed to send event")
)
