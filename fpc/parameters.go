package fpc

import (
	"errors"
	"fmt"
	"time"
)

// DefaultQuerySampleSize is the default number of weighted draws over the
// opinion giver set per round.
const DefaultQuerySampleSize = 21

// Parameters are the tunables of the FPC algorithm. Use DefaultParameters as
// a starting point; all values are validated by New.
type Parameters struct {
	// FirstRoundLowerBound and FirstRoundUpperBound delimit the random
	// opinion-flip threshold used on a context's first round.
	FirstRoundLowerBound float64
	FirstRoundUpperBound float64

	// SubsequentRoundsLowerBound and SubsequentRoundsUpperBound delimit the
	// random threshold used on all rounds except the first and the fixed
	// tail.
	SubsequentRoundsLowerBound float64
	SubsequentRoundsUpperBound float64

	// EndingRoundsFixedThreshold is the constant threshold used during the
	// last TotalRoundsFixed rounds before the finalization window.
	EndingRoundsFixedThreshold float64

	// QuerySampleSize is the number of uniform draws used to select which
	// opinion givers are queried each round. A giver drawn several times has
	// its opinion counted as many times.
	QuerySampleSize int

	// TotalRoundsFinalization is the number of consecutive rounds an
	// opinion must stay constant for the vote to finalize.
	TotalRoundsFinalization int

	// TotalRoundsFixed is the size of the fixed-threshold tail. It must not
	// exceed TotalRoundsFinalization.
	TotalRoundsFixed int

	// CoolingOffPeriod is the number of initial rounds during which
	// finalization is never checked.
	CoolingOffPeriod int

	// MaxRoundsPerVoteContext caps the rounds a vote may take; exceeding it
	// without finalizing fails the vote.
	MaxRoundsPerVoteContext int

	// MinOpinionsReceived is the per-round quorum of non-Unknown opinions.
	// Below it, a context's liked ratio is left unchanged for the round.
	MinOpinionsReceived int

	// QueryTimeout bounds a single opinion giver query. A timed-out giver
	// contributes nothing to the round.
	QueryTimeout time.Duration
}

// DefaultParameters returns the parameter set used by the protocol by
// default.
func DefaultParameters() Parameters {
	return Parameters{
		FirstRoundLowerBound:       0.67,
		FirstRoundUpperBound:       0.67,
		SubsequentRoundsLowerBound: 0.50,
		SubsequentRoundsUpperBound: 0.67,
		EndingRoundsFixedThreshold: 0.50,
		QuerySampleSize:            DefaultQuerySampleSize,
		TotalRoundsFinalization:    10,
		TotalRoundsFixed:           3,
		CoolingOffPeriod:           0,
		MaxRoundsPerVoteContext:    100,
		MinOpinionsReceived:        1,
		QueryTimeout:               1500 * time.Millisecond,
	}
}

// Validate checks the parameter set for internal consistency.
func (p Parameters) Validate() error {
	for _, bounds := range []struct {
		name         string
		lower, upper float64
	}{
		{"first round", p.FirstRoundLowerBound, p.FirstRoundUpperBound},
		{"subsequent rounds", p.SubsequentRoundsLowerBound, p.SubsequentRoundsUpperBound},
	} {
		if bounds.lower < 0 || bounds.upper > 1 {
			return fmt.Errorf("%s threshold bounds [%f, %f] outside [0, 1]", bounds.name, bounds.lower, bounds.upper)
		}
		if bounds.lower > bounds.upper {
			return fmt.Errorf("%s threshold lower bound %f above upper bound %f", bounds.name, bounds.lower, bounds.upper)
		}
	}
	if p.EndingRoundsFixedThreshold < 0 || p.EndingRoundsFixedThreshold > 1 {
		return fmt.Errorf("fixed threshold %f outside [0, 1]", p.EndingRoundsFixedThreshold)
	}
	if p.QuerySampleSize <= 0 {
		return errors.New("query sample size must be positive")
	}
	if p.TotalRoundsFinalization <= 0 {
		return errors.New("finalization rounds must be positive")
	}
	if p.TotalRoundsFixed < 0 || p.TotalRoundsFixed > p.TotalRoundsFinalization {
		return fmt.Errorf("fixed rounds %d must be within [0, %d]", p.TotalRoundsFixed, p.TotalRoundsFinalization)
	}
	if p.CoolingOffPeriod < 0 {
		return errors.New("cooling-off period must not be negative")
	}
	if p.MaxRoundsPerVoteContext <= 0 {
		return errors.New("max rounds per vote context must be positive")
	}
	if p.MinOpinionsReceived <= 0 {
		return errors.New("minimum opinions received must be positive")
	}
	if p.QueryTimeout <= 0 {
		return errors.New("query timeout must be positive")
	}
	return nil
}
