// Package bee provides the Fast Probabilistic Consensus voting core of a
// distributed ledger node: a leaderless engine that converges, together with
// a changing set of peers, on a binary opinion about disputed transactions
// and message timestamps.
//
// The fpc package contains the round engine, the vote package the value
// model and capabilities, and the p2p package a libp2p transport for
// querying peers' opinions.
package bee

import (
	"github.com/Adam-Gleave/bee/fpc"
	"github.com/Adam-Gleave/bee/p2p"
	"github.com/Adam-Gleave/bee/vote"

	"github.com/libp2p/go-libp2p/core/host"
)

// New wires an FPC voting engine to a libp2p host. The host answers other
// nodes' opinion queries from the given retriever, and the engine samples
// the host's connected peers for their opinions each round.
func New(h host.Host, retriever vote.OpinionRetriever, events chan<- fpc.Event, params fpc.Parameters, opts ...fpc.Option) (*fpc.Engine, error) {
	p2p.NewServer(h, retriever)
	return fpc.New(p2p.Givers(h), events, params, opts...)
}
