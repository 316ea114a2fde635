package fpc

import (
	"testing"

	"github.com/Adam-Gleave/bee/vote"
	"github.com/stretchr/testify/require"
)

func queueObject(b byte) vote.Object {
	var id vote.ID
	id[0] = b
	return vote.NewTimestamp(id)
}

func TestQueuePushPop(t *testing.T) {
	q := newQueue()
	require.Zero(t, q.len())
	require.Nil(t, q.pop())

	first := queueObject(1)
	second := queueObject(2)
	q.push(NewVoteContext(first, vote.Like))
	q.push(NewVoteContext(second, vote.Dislike))

	require.Equal(t, 2, q.len())
	require.True(t, q.contains(first))
	require.True(t, q.contains(second))

	popped := q.pop()
	require.Equal(t, first, popped.Object())
	require.False(t, q.contains(first))
	require.True(t, q.contains(second))

	popped = q.pop()
	require.Equal(t, second, popped.Object())
	require.Zero(t, q.len())
	require.Nil(t, q.pop())
}
