package vote

import "context"

type (
	// OpinionGiver is a peer capability that can be queried for its current
	// opinions on a set of vote objects.
	OpinionGiver interface {
		// Query returns exactly one opinion per requested object, in the
		// order given by QueryObjects.All, or fails the whole batch. The
		// caller bounds the query with the context.
		Query(ctx context.Context, objects QueryObjects) (Opinions, error)

		// ID is a stable identity for the giver, used for reporting.
		ID() string
	}

	// OpinionGiverFunc supplies the opinion givers available for the current
	// round. It is called once per round; the returned set may change from
	// call to call as peers come and go.
	OpinionGiverFunc func() ([]OpinionGiver, error)

	// OpinionRetriever yields this node's own current opinion on an object.
	// It backs the query server answering other nodes' opinion queries.
	OpinionRetriever func(obj Object) Opinion

	// Voter is the submission surface of the voting engine.
	Voter interface {
		// Vote submits an object for voting with the node's initial opinion.
		Vote(obj Object, initial Opinion) error

		// IntermediateOpinion returns the most recent opinion formed for an
		// object with voting in progress.
		IntermediateOpinion(obj Object) (Opinion, error)
	}
)
