package vote

// Opinion is a node's stance on a disputed object.
type Opinion uint8

const (
	// Like marks the object as preferred.
	Like Opinion = 1 << 0
	// Dislike marks the object as rejected.
	Dislike Opinion = 1 << 1
	// Unknown means no valid opinion was received. It occupies a history
	// slot but is excluded from liked-ratio computation.
	Unknown Opinion = 1 << 2
)

func (o Opinion) String() string {
	switch o {
	case Like:
		return "Like"
	case Dislike:
		return "Dislike"
	case Unknown:
		return "Unknown"
	default:
		return "Invalid"
	}
}

// Opinions is an ordered sequence of opinions. When used as a vote history,
// index 0 is the initial opinion supplied at submission time and every later
// index holds the opinion formed in one completed round.
type Opinions []Opinion

// QueriedOpinions records what a single opinion giver answered in one round.
type QueriedOpinions struct {
	// GiverID is the stable identity of the queried opinion giver.
	GiverID string

	// Opinions maps each queried object to the opinion the giver returned.
	Opinions map[Object]Opinion

	// TimesCounted is how many times the giver was drawn in this round's
	// sample. Usually 1, but a giver drawn multiple times has its opinion
	// weighted proportionally in the aggregate.
	TimesCounted int
}
