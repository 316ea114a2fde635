package fpc

import "github.com/Adam-Gleave/bee/vote"

// likedInitial marks a context that has not yet completed a round with a
// valid liked ratio.
const likedInitial = -1

// VoteContext tracks the voting state of a single disputed object across
// rounds: the opinion history, the number of completed rounds and the liked
// ratio measured on the last query.
type VoteContext struct {
	object vote.Object

	// liked is the weighted fraction of sampled opinions that were Like on
	// the last query, or likedInitial before the first valid round.
	liked float64

	// rounds counts the completed voting rounds this context took part in.
	rounds int

	// opinions is the append-only history of formed opinions. Index 0 is
	// the initial opinion given at submission time.
	opinions vote.Opinions
}

// NewVoteContext creates the voting state for an object, seeded with the
// submitter's initial opinion.
func NewVoteContext(obj vote.Object, initial vote.Opinion) *VoteContext {
	return &VoteContext{
		object:   obj,
		liked:    likedInitial,
		opinions: vote.Opinions{initial},
	}
}

// NewVoteContextWithOpinions creates the voting state for an object seeded
// with a pre-existing opinion history. At least one opinion is required.
func NewVoteContextWithOpinions(obj vote.Object, opinions vote.Opinions) (*VoteContext, error) {
	if len(opinions) == 0 {
		return nil, vote.ErrNoInitialOpinions
	}
	return &VoteContext{
		object:   obj,
		liked:    likedInitial,
		opinions: append(vote.Opinions{}, opinions...),
	}, nil
}

// Object returns the disputed object this context tracks.
func (c *VoteContext) Object() vote.Object {
	return c.object
}

// AddOpinion appends a newly formed opinion to the history.
func (c *VoteContext) AddOpinion(opinion vote.Opinion) {
	c.opinions = append(c.opinions, opinion)
}

// LastOpinion returns the most recently formed opinion.
func (c *VoteContext) LastOpinion() vote.Opinion {
	if len(c.opinions) == 0 {
		return vote.Unknown
	}
	return c.opinions[len(c.opinions)-1]
}

// Opinions returns a copy of the opinion history.
func (c *VoteContext) Opinions() vote.Opinions {
	return append(vote.Opinions{}, c.opinions...)
}

// Liked returns the liked ratio measured on the last valid query, or -1 if
// no round has produced one yet.
func (c *VoteContext) Liked() float64 {
	return c.liked
}

// SetLiked records the liked ratio of the current round.
func (c *VoteContext) SetLiked(liked float64) {
	c.liked = liked
}

// Rounds returns the number of completed voting rounds.
func (c *VoteContext) Rounds() int {
	return c.rounds
}

// RoundCompleted marks the completion of one voting round.
func (c *VoteContext) RoundCompleted() {
	c.rounds++
}

// IsNew tells whether the context has not yet recorded a liked ratio, i.e.
// no valid round has completed for it.
func (c *VoteContext) IsNew() bool {
	return c.liked == likedInitial
}

// HadFirstRound tells whether the context just finished its first round.
func (c *VoteContext) HadFirstRound() bool {
	return c.rounds == 1
}

// HadFixedRound tells whether the context is inside the last fixedEndingRounds
// before the finalization window with a stable opinion, in which case the
// engine switches to a fixed threshold to resist adversarial timing.
func (c *VoteContext) HadFixedRound(coolingOffPeriod, finalizationThreshold, fixedEndingRounds int) bool {
	// Opinions contributed by completed rounds exclude the initial one.
	if len(c.opinions)-1 < coolingOffPeriod+finalizationThreshold-fixedEndingRounds {
		return false
	}

	if fixedEndingRounds <= 0 || len(c.opinions) < fixedEndingRounds {
		return false
	}

	candidate := c.opinions[len(c.opinions)-fixedEndingRounds]
	for _, opinion := range c.opinions[len(c.opinions)-fixedEndingRounds:] {
		if opinion != candidate {
			return false
		}
	}
	return true
}

// Finalized tells whether the opinion has stayed constant for the last
// finalizationThreshold rounds, after an initial coolingOffPeriod during
// which finalization is never checked.
func (c *VoteContext) Finalized(coolingOffPeriod, finalizationThreshold int) bool {
	// Not enough completed rounds to decide.
	if len(c.opinions)-1 < coolingOffPeriod+finalizationThreshold {
		return false
	}

	// The opinion at this index must be held for every subsequent round.
	candidateIndex := len(c.opinions) - finalizationThreshold
	if candidateIndex < 0 {
		return false
	}

	candidate := c.opinions[candidateIndex]
	for _, opinion := range c.opinions[candidateIndex+1:] {
		if opinion != candidate {
			return false
		}
	}
	return true
}

// Clone returns an independent snapshot of the context.
func (c *VoteContext) Clone() *VoteContext {
	return &VoteContext{
		object:   c.object,
		liked:    c.liked,
		rounds:   c.rounds,
		opinions: append(vote.Opinions{}, c.opinions...),
	}
}
