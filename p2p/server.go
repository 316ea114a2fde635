package p2p

import (
	"encoding/json"
	"os"

	"github.com/Adam-Gleave/bee/vote"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/rs/zerolog"
)

// Server answers opinion queries from other nodes using the node's own
// current opinions.
type Server struct {
	host      host.Host
	retriever vote.OpinionRetriever
	logger    zerolog.Logger
}

// ServerOption configures a Server. If left empty, defaults will be used.
type ServerOption func(s *Server)

// WithServerLogger sets the logger dropped queries are reported to.
func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer registers the opinion query protocol on the host. Queries are
// answered from the retriever until Close is called.
func NewServer(h host.Host, retriever vote.OpinionRetriever, opts ...ServerOption) *Server {
	s := &Server{
		host:      h,
		retriever: retriever,
		logger:    zerolog.New(os.Stdout),
	}
	for _, opt := range opts {
		opt(s)
	}
	h.SetStreamHandler(ProtocolID, s.handleStream)
	return s
}

// Close unregisters the opinion query protocol.
func (s *Server) Close() error {
	s.host.RemoveStreamHandler(ProtocolID)
	return nil
}

func (s *Server) handleStream(stream network.Stream) {
	defer stream.Close()

	var msg queryMessage
	if err := json.NewDecoder(stream).Decode(&msg); err != nil {
		s.logger.Debug().Err(err).Str("peer", stream.Conn().RemotePeer().String()).
			Msg("dropping malformed opinion query")
		stream.Reset()
		return
	}

	objects, err := queryObjects(msg)
	if err != nil {
		s.logger.Debug().Err(err).Str("peer", stream.Conn().RemotePeer().String()).
			Msg("dropping opinion query with malformed object id")
		stream.Reset()
		return
	}

	reply := replyMessage{
		Opinions: make([]vote.Opinion, 0, objects.Len()),
	}
	for _, obj := range objects.All() {
		reply.Opinions = append(reply.Opinions, s.retriever(obj))
	}

	if err := json.NewEncoder(stream).Encode(&reply); err != nil {
		s.logger.Debug().Err(err).Str("peer", stream.Conn().RemotePeer().String()).
			Msg("failed to send opinion reply")
		stream.Reset()
	}
}

func queryObjects(msg queryMessage) (vote.QueryObjects, error) {
	var objects vote.QueryObjects
	for _, raw := range msg.Conflicts {
		id, err := vote.ParseID(raw)
		if err != nil {
			return vote.QueryObjects{}, err
		}
		objects.Conflicts = append(objects.Conflicts, vote.NewConflict(id))
	}
	for _, raw := range msg.Timestamps {
		id, err := vote.ParseID(raw)
		if err != nil {
			return vote.QueryObjects{}, err
		}
		objects.Timestamps = append(objects.Timestamps, vote.NewTimestamp(id))
	}
	return objects, nil
}
