package dht

import (
	"context"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sirupsen/logrus"

	"zhtp-network/internal/xerrors"
)

// libp2pGossipTopic is the single gossipsub topic routing packets
// flow over; the packet's own SenderID/TargetID fields (packet.go)
// carry addressing, so the transport layer below does not need a
// topic per peer.
const libp2pGossipTopic = "zhtp-dht-v1"

// LibP2PTransport carries DhtRoutingCore packets over a libp2p host's
// QUIC/TCP transports via gossipsub, the wide-area path used once a
// node is past the purely local WiFi Direct / Bluetooth mesh.
type LibP2PTransport struct {
	host  host.Host
	local NodeID
	topic *pubsub.Topic
	sub   *pubsub.Subscription
}

// NewLibP2PTransport starts a libp2p host on listenAddr and joins the
// routing gossip topic.
func NewLibP2PTransport(ctx context.Context, listenAddr string, local NodeID) (*LibP2PTransport, error) {
	h, err := libp2p.New(libp2p.ListenAddrStrings(listenAddr))
	if err != nil {
		return nil, xerrors.New(xerrors.KindTransport, "dht.NewLibP2PTransport", err)
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, xerrors.New(xerrors.KindTransport, "dht.NewLibP2PTransport", err)
	}
	topic, err := ps.Join(libp2pGossipTopic)
	if err != nil {
		h.Close()
		return nil, xerrors.New(xerrors.KindTransport, "dht.NewLibP2PTransport", err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		h.Close()
		return nil, xerrors.New(xerrors.KindTransport, "dht.NewLibP2PTransport", err)
	}
	return &LibP2PTransport{host: h, local: local, topic: topic, sub: sub}, nil
}

// Connect dials a known multiaddr peer so gossipsub has a mesh link to
// route through.
func (t *LibP2PTransport) Connect(ctx context.Context, addr string) error {
	info, err := peer.AddrInfoFromString(addr)
	if err != nil {
		return xerrors.New(xerrors.KindTransport, "dht.LibP2PTransport.Connect", err)
	}
	if err := t.host.Connect(ctx, *info); err != nil {
		return xerrors.New(xerrors.KindTransport, "dht.LibP2PTransport.Connect", err)
	}
	logrus.Infof("connected to bootstrap peer %s", addr)
	return nil
}

// Send publishes payload to the routing gossip topic. Every mesh
// member receives every publish; the packet's TargetID is what lets
// an uninterested recipient drop it cheaply.
func (t *LibP2PTransport) Send(ctx context.Context, payload []byte, peer Peer) error {
	if err := t.topic.Publish(ctx, payload); err != nil {
		return xerrors.New(xerrors.KindTransport, "dht.LibP2PTransport.Send", err)
	}
	return nil
}

// Receive blocks for the next gossip message not published by this
// host itself.
func (t *LibP2PTransport) Receive(ctx context.Context) ([]byte, Peer, error) {
	for {
		msg, err := t.sub.Next(ctx)
		if err != nil {
			return nil, Peer{}, xerrors.New(xerrors.KindTransport, "dht.LibP2PTransport.Receive", err)
		}
		if msg.ReceivedFrom == t.host.ID() {
			continue
		}
		return msg.Data, Peer{ID: peerIDToNodeID(msg.ReceivedFrom)}, nil
	}
}

func (t *LibP2PTransport) LocalID() NodeID { return t.local }

// CanReach reports whether peer advertises a transport this host can
// dial over the wider internet.
func (t *LibP2PTransport) CanReach(peer Peer) bool {
	for _, addr := range peer.Addresses {
		if addr.Kind == TransportQUIC || addr.Kind == TransportUDP {
			return true
		}
	}
	return false
}

func (t *LibP2PTransport) MTU() int { return 64 * 1024 }

func (t *LibP2PTransport) TypicalLatencyMs() float64 { return 80 }

// Close shuts down the underlying host.
func (t *LibP2PTransport) Close() error {
	return t.host.Close()
}

// peerIDToNodeID right-aligns a libp2p peer.ID's raw bytes into the
// wider 256-bit NodeID space used by the routing table.
func peerIDToNodeID(id peer.ID) NodeID {
	var out NodeID
	b := []byte(id)
	n := len(b)
	if n > len(out) {
		n = len(out)
	}
	copy(out[len(out)-n:], b[:n])
	return out
}

var _ Transport = (*LibP2PTransport)(nil)
