// Package fpc implements the Fast Probabilistic Consensus voting engine: a
// leaderless, round-based protocol in which a node repeatedly samples the
// opinions of a random subset of peers and adjusts its own opinion on each
// disputed object using a randomized threshold, until the opinion has stayed
// constant long enough to finalize.
package fpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adam-Gleave/bee/vote"
	"github.com/rs/zerolog"
)

var _ vote.Voter = (*Engine)(nil)

// Engine runs FPC voting over a changing set of opinion givers.
//
// Objects are submitted with Vote and join the active table at the start of
// the next round. Rounds are driven externally through DoRound (or the Run
// loop); the random draw used for threshold selection is supplied by the
// caller so that round execution stays reproducible given a fixed input.
// Vote, IntermediateOpinion and DoRound may be called from independent
// goroutines, but DoRound invocations must be serialized by the caller.
type Engine struct {
	// opinionGiverFn supplies the opinion givers available for a round. It
	// is consulted once per round to reflect peer churn.
	opinionGiverFn vote.OpinionGiverFunc

	// events receives one RoundExecutedEvent per completed round plus a
	// terminal Finalized or Failed event per vote.
	events chan<- Event

	params  Parameters
	logger  zerolog.Logger
	metrics *Metrics

	queueMtx sync.Mutex
	queue    *queue

	contextsMtx sync.RWMutex
	contexts    map[vote.Object]*VoteContext

	// lastRoundSuccessful gates opinion forming and finalization checks:
	// a round following a failed round must not act on stale thresholds.
	lastRoundSuccessful atomic.Bool

	// sampleIndex draws a uniform index below n for giver selection.
	sampleIndex func(n int) int
}

// New creates a voting engine. Terminal and per-round events are delivered
// on the events channel; the send is non-blocking, so the channel should be
// buffered generously enough for the caller's consumption rate.
func New(opinionGiverFn vote.OpinionGiverFunc, events chan<- Event, params Parameters, opts ...Option) (*Engine, error) {
	if opinionGiverFn == nil {
		return nil, errors.New("opinion giver provider must not be nil")
	}
	if events == nil {
		return nil, errors.New("event channel must not be nil")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	e := &Engine{
		opinionGiverFn: opinionGiverFn,
		events:         events,
		params:         params,
		logger:         zerolog.New(os.Stdout),
		queue:          newQueue(),
		contexts:       make(map[vote.Object]*VoteContext),
		sampleIndex:    rand.Intn,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e, nil
}

// Vote submits an object for voting with the node's initial opinion. The
// context joins the voting pool on the next round. Returns ErrVoteOngoing if
// the object is already pending or active.
func (e *Engine) Vote(obj vote.Object, initial vote.Opinion) error {
	e.queueMtx.Lock()
	defer e.queueMtx.Unlock()
	e.contextsMtx.RLock()
	defer e.contextsMtx.RUnlock()

	if e.queue.contains(obj) {
		return fmt.Errorf("%w: %s", vote.ErrVoteOngoing, obj)
	}
	if _, ok := e.contexts[obj]; ok {
		return fmt.Errorf("%w: %s", vote.ErrVoteOngoing, obj)
	}

	e.queue.push(NewVoteContext(obj, initial))
	return nil
}

// IntermediateOpinion returns the most recent opinion formed for an object
// in the active voting pool. Objects that are unknown to the engine, still
// queued, or already finalized or failed yield ErrVotingNotFound.
func (e *Engine) IntermediateOpinion(obj vote.Object) (vote.Opinion, error) {
	e.contextsMtx.RLock()
	defer e.contextsMtx.RUnlock()

	ctx, ok := e.contexts[obj]
	if !ok {
		return vote.Unknown, fmt.Errorf("%w: %s", vote.ErrVotingNotFound, obj)
	}
	return ctx.LastOpinion(), nil
}

// DoRound executes exactly one voting round: it merges queued contexts into
// the pool, forms opinions from the previous round's liked ratios, emits
// terminal events for finalized and failed votes, queries a random sample of
// opinion givers and aggregates their replies into new liked ratios.
//
// rnd must be uniform in [0, 1); it seeds the threshold selection for this
// round and is supplied by the caller.
//
// The round fails with ErrNoOpinionGivers only if opinions needed querying
// and no givers were available. Individual giver failures never fail the
// round; they only shrink its effective sample.
func (e *Engine) DoRound(ctx context.Context, rnd float64) error {
	start := time.Now()
	e.enqueue()

	if e.lastRoundSuccessful.Load() {
		e.formOpinions(rnd)
		if err := e.finalizeOpinions(); err != nil {
			return err
		}
	}

	queriedOpinions, err := e.queryOpinions(ctx)
	if err != nil {
		// Treat the round as if it produced no new information: the next
		// round must skip opinion forming and finalization checks.
		e.lastRoundSuccessful.Store(false)
		e.metrics.RoundsFailed.Inc()
		return err
	}
	e.lastRoundSuccessful.Store(true)

	stats := RoundStats{
		Duration:           time.Since(start),
		RandUsed:           rnd,
		ActiveVoteContexts: e.snapshotContexts(),
		QueriedOpinions:    queriedOpinions,
	}

	e.metrics.RoundsExecuted.Inc()
	e.metrics.RoundDuration.Observe(stats.Duration.Seconds())
	e.metrics.ActiveContexts.Set(float64(len(stats.ActiveVoteContexts)))

	if err := e.emit(RoundExecutedEvent{Stats: stats}); err != nil {
		return fmt.Errorf("failed to report round: %w", err)
	}
	return nil
}

// Run drives rounds on a fixed interval until the context is cancelled,
// drawing the per-round entropy from the given source. Rounds without any
// available opinion givers are logged and skipped; any other round error
// stops the loop.
func (e *Engine) Run(ctx context.Context, interval time.Duration, entropy func() float64) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.DoRound(ctx, entropy()); err != nil {
				if errors.Is(err, vote.ErrNoOpinionGivers) {
					e.logger.Warn().Msg("skipping voting round, no opinion givers available")
					continue
				}
				return err
			}
		}
	}
}

// enqueue drains the pending queue into the active table.
func (e *Engine) enqueue() {
	e.queueMtx.Lock()
	defer e.queueMtx.Unlock()
	e.contextsMtx.Lock()
	defer e.contextsMtx.Unlock()

	for voteCtx := e.queue.pop(); voteCtx != nil; voteCtx = e.queue.pop() {
		e.contexts[voteCtx.Object()] = voteCtx
	}
}

// formOpinions has every context that completed at least one round compare
// its last liked ratio against this round's threshold and append the
// resulting opinion.
func (e *Engine) formOpinions(rnd float64) {
	e.contextsMtx.Lock()
	defer e.contextsMtx.Unlock()

	for _, voteCtx := range e.contexts {
		// A context that merged this round has no liked ratio to form an
		// opinion from yet.
		if voteCtx.IsNew() {
			continue
		}

		lower, upper := e.roundThresholds(voteCtx)
		threshold := lower + rnd*(upper-lower)

		if voteCtx.Liked() >= threshold {
			voteCtx.AddOpinion(vote.Like)
		} else {
			voteCtx.AddOpinion(vote.Dislike)
		}
	}
}

// finalizeOpinions emits a terminal event for every context whose opinion
// has settled or whose round budget ran out, and removes it from the pool.
func (e *Engine) finalizeOpinions() error {
	e.contextsMtx.Lock()
	defer e.contextsMtx.Unlock()

	var remove []vote.Object
	for obj, voteCtx := range e.contexts {
		if voteCtx.Finalized(e.params.CoolingOffPeriod, e.params.TotalRoundsFinalization) {
			if err := e.emit(FinalizedEvent{OpinionEvent{
				Object:  obj,
				Opinion: voteCtx.LastOpinion(),
				Context: *voteCtx.Clone(),
			}}); err != nil {
				return fmt.Errorf("failed to report finalized vote: %w", err)
			}
			e.metrics.VotesFinalized.Inc()
			remove = append(remove, obj)
			continue
		}

		if voteCtx.Rounds() >= e.params.MaxRoundsPerVoteContext {
			if err := e.emit(FailedEvent{OpinionEvent{
				Object:  obj,
				Opinion: voteCtx.LastOpinion(),
				Context: *voteCtx.Clone(),
			}}); err != nil {
				return fmt.Errorf("failed to report failed vote: %w", err)
			}
			e.metrics.VotesFailed.Inc()
			remove = append(remove, obj)
		}
	}

	for _, obj := range remove {
		delete(e.contexts, obj)
	}
	return nil
}

// queryOpinions fans out one query per sampled giver for all active objects
// and folds the replies into the contexts' liked ratios. Giver failures are
// absorbed here; only a complete lack of givers fails the round.
func (e *Engine) queryOpinions(ctx context.Context) ([]vote.QueriedOpinions, error) {
	objects := e.activeObjects()
	if objects.Len() == 0 {
		return nil, nil
	}

	givers, err := e.opinionGiverFn()
	if err != nil {
		return nil, fmt.Errorf("failed to get opinion givers: %w", err)
	}
	if len(givers) == 0 {
		return nil, vote.ErrNoOpinionGivers
	}

	sampleCounts := e.sampleGivers(len(givers))
	all := objects.All()

	var (
		wg         sync.WaitGroup
		resultsMtx sync.Mutex
		voteMap    = make(map[vote.Object]vote.Opinions)
		queried    = make([]vote.QueriedOpinions, 0, len(givers))
	)

	for i, giver := range givers {
		count := sampleCounts[i]
		if count == 0 {
			continue
		}

		wg.Add(1)
		go func(giver vote.OpinionGiver, count int) {
			defer wg.Done()

			queryCtx, cancel := context.WithTimeout(ctx, e.params.QueryTimeout)
			defer cancel()

			opinions, err := giver.Query(queryCtx, objects)
			if err != nil {
				e.metrics.QueryFailures.Inc()
				e.logger.Debug().Err(err).Str("giver", giver.ID()).Msg("dropping opinion query")
				return
			}
			if len(opinions) != len(all) {
				e.metrics.QueryFailures.Inc()
				e.logger.Debug().Str("giver", giver.ID()).
					Int("want", len(all)).Int("got", len(opinions)).
					Msg("dropping malformed opinion reply")
				return
			}

			record := vote.QueriedOpinions{
				GiverID:      giver.ID(),
				Opinions:     make(map[vote.Object]vote.Opinion, len(all)),
				TimesCounted: count,
			}

			resultsMtx.Lock()
			defer resultsMtx.Unlock()
			for j, obj := range all {
				record.Opinions[obj] = opinions[j]
				for k := 0; k < count; k++ {
					voteMap[obj] = append(voteMap[obj], opinions[j])
				}
			}
			queried = append(queried, record)
		}(giver, count)
	}
	wg.Wait()

	e.countVotes(voteMap)
	return queried, nil
}

// sampleGivers draws QuerySampleSize uniform samples over n givers and
// returns how many times each index was drawn.
func (e *Engine) sampleGivers(n int) []int {
	counts := make([]int, n)
	for i := 0; i < e.params.QuerySampleSize; i++ {
		counts[e.sampleIndex(n)]++
	}
	return counts
}

// countVotes completes the round for every active context and, where the
// quorum of non-Unknown replies was met, updates its liked ratio.
func (e *Engine) countVotes(voteMap map[vote.Object]vote.Opinions) {
	e.contextsMtx.Lock()
	defer e.contextsMtx.Unlock()

	for obj, voteCtx := range e.contexts {
		voteCtx.RoundCompleted()

		likedSum := 0.0
		votes := voteMap[obj]
		votedCount := len(votes)
		for _, opinion := range votes {
			switch opinion {
			case vote.Unknown:
				votedCount--
			case vote.Like:
				likedSum++
			}
		}

		if votedCount < e.params.MinOpinionsReceived {
			continue
		}
		voteCtx.SetLiked(likedSum / float64(votedCount))
	}
}

// activeObjects returns the objects currently being voted on, partitioned
// by kind.
func (e *Engine) activeObjects() vote.QueryObjects {
	e.contextsMtx.RLock()
	defer e.contextsMtx.RUnlock()

	var objects vote.QueryObjects
	for obj := range e.contexts {
		switch obj.Kind() {
		case vote.ConflictObject:
			objects.Conflicts = append(objects.Conflicts, obj)
		case vote.TimestampObject:
			objects.Timestamps = append(objects.Timestamps, obj)
		}
	}
	return objects
}

// snapshotContexts clones the active table for reporting.
func (e *Engine) snapshotContexts() map[vote.Object]*VoteContext {
	e.contextsMtx.RLock()
	defer e.contextsMtx.RUnlock()

	snapshot := make(map[vote.Object]*VoteContext, len(e.contexts))
	for obj, voteCtx := range e.contexts {
		snapshot[obj] = voteCtx.Clone()
	}
	return snapshot
}

// roundThresholds selects the threshold bounds for a context's next opinion:
// first-round bounds straight after the first round, the fixed threshold in
// the closing rounds, and the subsequent-round bounds otherwise.
func (e *Engine) roundThresholds(voteCtx *VoteContext) (lower, upper float64) {
	switch {
	case voteCtx.HadFirstRound():
		return e.params.FirstRoundLowerBound, e.params.FirstRoundUpperBound
	case voteCtx.HadFixedRound(e.params.CoolingOffPeriod, e.params.TotalRoundsFinalization, e.params.TotalRoundsFixed):
		return e.params.EndingRoundsFixedThreshold, e.params.EndingRoundsFixedThreshold
	default:
		return e.params.SubsequentRoundsLowerBound, e.params.SubsequentRoundsUpperBound
	}
}

// emit delivers an event without blocking round execution.
func (e *Engine) emit(event Event) error {
	select {
	case e.events <- event:
		return nil
	default:
		return vote.ErrEventSend
	}
}
