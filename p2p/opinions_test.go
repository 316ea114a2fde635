package p2p

import (
	"context"
	"testing"
	"time"

	"github.com/Adam-Gleave/bee/vote"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpinionQuery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	mn, err := mocknet.FullMeshLinked(2)
	require.NoError(t, err)
	require.NoError(t, mn.ConnectAllButSelf())
	serverHost, clientHost := mn.Hosts()[0], mn.Hosts()[1]

	var conflictID, messageID vote.ID
	conflictID[0] = 1
	messageID[0] = 2

	server := NewServer(serverHost, func(obj vote.Object) vote.Opinion {
		switch obj {
		case vote.NewConflict(conflictID):
			return vote.Like
		case vote.NewTimestamp(messageID):
			return vote.Dislike
		default:
			return vote.Unknown
		}
	})
	t.Cleanup(func() {
		require.NoError(t, server.Close())
	})

	giver := NewGiver(clientHost, serverHost.ID())
	require.Equal(t, serverHost.ID().String(), giver.ID())

	opinions, err := giver.Query(ctx, vote.QueryObjects{
		Conflicts:  []vote.Object{vote.NewConflict(conflictID)},
		Timestamps: []vote.Object{vote.NewTimestamp(messageID)},
	})
	require.NoError(t, err)
	require.Equal(t, vote.Opinions{vote.Like, vote.Dislike}, opinions)

	// An object the server has no opinion on yields Unknown, not an error.
	var otherID vote.ID
	otherID[0] = 3
	opinions, err = giver.Query(ctx, vote.QueryObjects{
		Conflicts: []vote.Object{vote.NewConflict(otherID)},
	})
	require.NoError(t, err)
	require.Equal(t, vote.Opinions{vote.Unknown}, opinions)
}

func TestGiversProvider(t *testing.T) {
	mn, err := mocknet.FullMeshLinked(3)
	require.NoError(t, err)
	require.NoError(t, mn.ConnectAllButSelf())

	givers, err := Givers(mn.Hosts()[0])()
	require.NoError(t, err)
	require.Len(t, givers, 2)

	ids := map[string]bool{}
	for _, giver := range givers {
		ids[giver.ID()] = true
	}
	assert.True(t, ids[mn.Hosts()[1].ID().String()])
	assert.True(t, ids[mn.Hosts()[2].ID().String()])
}

func TestQueryRejectsInvalidOpinion(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	mn, err := mocknet.FullMeshLinked(2)
	require.NoError(t, err)
	require.NoError(t, mn.ConnectAllButSelf())
	serverHost, clientHost := mn.Hosts()[0], mn.Hosts()[1]

	// A peer answering with an out-of-range opinion value must be treated
	// like any other malformed reply.
	server := NewServer(serverHost, func(vote.Object) vote.Opinion {
		return vote.Opinion(99)
	})
	t.Cleanup(func() {
		require.NoError(t, server.Close())
	})

	var id vote.ID
	id[0] = 1
	_, err = NewGiver(clientHost, serverHost.ID()).Query(ctx, vote.QueryObjects{
		Conflicts: []vote.Object{vote.NewConflict(id)},
	})
	require.ErrorContains(t, err, "invalid opinion")
}

func TestQueryClosedServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	mn, err := mocknet.FullMeshLinked(2)
	require.NoError(t, err)
	require.NoError(t, mn.ConnectAllButSelf())
	serverHost, clientHost := mn.Hosts()[0], mn.Hosts()[1]

	server := NewServer(serverHost, func(vote.Object) vote.Opinion { return vote.Like })
	require.NoError(t, server.Close())

	var id vote.ID
	id[0] = 1
	_, err = NewGiver(clientHost, serverHost.ID()).Query(ctx, vote.QueryObjects{
		Conflicts: []vote.Object{vote.NewConflict(id)},
	})
	require.Error(t, err)
}
