package dht

import (
	"context"

	"zhtp-network/internal/xerrors"
)

// Transport is the contract DhtRoutingCore uses to reach peers,
// independent of the physical medium. The libp2p and WebRTC transports
// both implement it the same way from the routing core's perspective.
type Transport interface {
	Send(ctx context.Context, payload []byte, peer Peer) error
	Receive(ctx context.Context) ([]byte, Peer, error)
	LocalID() NodeID
	CanReach(peer Peer) bool
	MTU() int
	TypicalLatencyMs() float64
}

// Multiplexer fans a single logical send/receive surface out across
// several Transports, picking the best-ranked reachable transport per
// peer by TransportKind.Priority().
type Multiplexer struct {
	transports map[TransportKind]Transport
}

// NewMultiplexer wraps a set of transports keyed by kind.
func NewMultiplexer(transports map[TransportKind]Transport) *Multiplexer {
	return &Multiplexer{transports: transports}
}

// Send picks the highest-priority transport that can reach peer and
// sends payload over it.
func (m *Multiplexer) Send(ctx context.Context, payload []byte, peer Peer) error {
	var best Transport
	bestPriority := -1
	for _, addr := range peer.Addresses {
		t, ok := m.transports[addr.Kind]
		if !ok || !t.CanReach(peer) {
			continue
		}
		if p := addr.Kind.Priority(); best == nil || p < bestPriority {
			best = t
			bestPriority = p
		}
	}
	if best == nil {
		return xerrors.New(xerrors.KindTransport, "dht.Multiplexer.Send", xerrors.ErrTransportUnreachable)
	}
	return best.Send(ctx, payload, peer)
}
