package fpc

import "github.com/Adam-Gleave/bee/vote"

// queue holds vote contexts awaiting the next round's merge into the active
// table. A parallel set over the objects gives O(1) duplicate checks; both
// structures are kept consistent on every push and pop.
type queue struct {
	contexts []*VoteContext
	objects  map[vote.Object]struct{}
}

func newQueue() *queue {
	return &queue{
		objects: make(map[vote.Object]struct{}),
	}
}

// contains reports whether a context for the object is queued.
func (q *queue) contains(obj vote.Object) bool {
	_, ok := q.objects[obj]
	return ok
}

// push appends a context to the back of the queue.
func (q *queue) push(ctx *VoteContext) {
	q.objects[ctx.Object()] = struct{}{}
	q.contexts = append(q.contexts, ctx)
}

// pop removes and returns the context at the front of the queue, or nil if
// the queue is empty.
func (q *queue) pop() *VoteContext {
	if len(q.contexts) == 0 {
		return nil
	}
	ctx := q.contexts[0]
	q.contexts = q.contexts[1:]
	delete(q.objects, ctx.Object())
	return ctx
}

func (q *queue) len() int {
	return len(q.contexts)
}
