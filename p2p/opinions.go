// Package p2p carries FPC opinion queries between nodes over libp2p
// streams. A Server answers queries from the node's own opinions; a Giver
// wraps a remote peer as a vote.OpinionGiver.
package p2p

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Adam-Gleave/bee/vote"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
)

// ProtocolID identifies the opinion query stream protocol.
const ProtocolID protocol.ID = "/bee/vote/1.0.0"

// queryMessage asks a peer for its opinions on the listed objects. The peer
// replies with one opinion per object, conflicts first, in the order listed.
type queryMessage struct {
	Conflicts  []string `json:"conflicts"`
	Timestamps []string `json:"timestamps"`
}

type replyMessage struct {
	Opinions []vote.Opinion `json:"opinions"`
}

var _ vote.OpinionGiver = (*Giver)(nil)

// Giver queries a single remote peer for opinions.
type Giver struct {
	host host.Host
	peer peer.ID
}

// NewGiver wraps a peer as an opinion giver reachable through the host.
func NewGiver(h host.Host, p peer.ID) *Giver {
	return &Giver{host: h, peer: p}
}

// ID implements vote.OpinionGiver.
func (g *Giver) ID() string {
	return g.peer.String()
}

// Query implements vote.OpinionGiver. It opens one stream to the peer,
// bounded by the context, and fails the whole batch on any stream or
// decoding error.
func (g *Giver) Query(ctx context.Context, objects vote.QueryObjects) (vote.Opinions, error) {
	stream, err := g.host.NewStream(ctx, g.peer, ProtocolID)
	if err != nil {
		return nil, fmt.Errorf("failed to open opinion stream to %s: %w", g.peer, err)
	}
	defer stream.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetDeadline(deadline)
	}

	msg := queryMessage{
		Conflicts:  make([]string, 0, len(objects.Conflicts)),
		Timestamps: make([]string, 0, len(objects.Timestamps)),
	}
	for _, obj := range objects.Conflicts {
		msg.Conflicts = append(msg.Conflicts, obj.ID().String())
	}
	for _, obj := range objects.Timestamps {
		msg.Timestamps = append(msg.Timestamps, obj.ID().String())
	}

	if err := json.NewEncoder(stream).Encode(&msg); err != nil {
		stream.Reset()
		return nil, fmt.Errorf("failed to send opinion query to %s: %w", g.peer, err)
	}
	if err := stream.CloseWrite(); err != nil {
		stream.Reset()
		return nil, err
	}

	var reply replyMessage
	if err := json.NewDecoder(stream).Decode(&reply); err != nil {
		stream.Reset()
		return nil, fmt.Errorf("failed to read opinion reply from %s: %w", g.peer, err)
	}

	if len(reply.Opinions) != objects.Len() {
		return nil, fmt.Errorf("opinion reply from %s has %d opinions, expected %d", g.peer, len(reply.Opinions), objects.Len())
	}
	for _, opinion := range reply.Opinions {
		switch opinion {
		case vote.Like, vote.Dislike, vote.Unknown:
		default:
			return nil, fmt.Errorf("opinion reply from %s contains invalid opinion %d", g.peer, opinion)
		}
	}
	return vote.Opinions(reply.Opinions), nil
}

// Givers returns a provider that offers one Giver per currently connected
// peer. The set is re-evaluated on every call, reflecting peer churn.
func Givers(h host.Host) vote.OpinionGiverFunc {
	return func() ([]vote.OpinionGiver, error) {
		peers := h.Network().Peers()
		givers := make([]vote.OpinionGiver, 0, len(peers))
		for _, p := range peers {
			givers = append(givers, NewGiver(h, p))
		}
		return givers, nil
	}
}
