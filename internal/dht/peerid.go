// Package dht is the DhtRoutingCore: multi-transport peer
// identification, Kademlia k-bucket maintenance, iterative lookup, the
// fixed-size wire packet format, and the transport abstraction.
package dht

import (
	"math/big"
)

// NodeID is a 256-bit identifier, generalized from the teacher's
// 160-bit SHA-1-derived id to the width spec.md's routing table keys
// on.
type NodeID [32]byte

// Distance is the XOR metric between two node ids.
func Distance(a, b NodeID) *big.Int {
	var diff [32]byte
	for i := range diff {
		diff[i] = a[i] ^ b[i]
	}
	return new(big.Int).SetBytes(diff[:])
}

// TransportKind tags which physical or logical transport a
// PeerAddress was learned over.
type TransportKind uint8

const (
	TransportUDP TransportKind = iota
	TransportBluetooth
	TransportWiFiDirect
	TransportLoRaWAN
	TransportQUIC
	TransportMesh
)

// transportPriority orders the transport-selection policy: local
// subnet first, then WiFi Direct, Bluetooth LE, LoRaWAN, Internet
// (UDP/QUIC), Satellite last. Mesh (public-key-addressed) is treated
// as local-subnet priority since it typically rides the same link.
var transportPriority = map[TransportKind]int{
	TransportMesh:       0,
	TransportWiFiDirect: 1,
	TransportBluetooth:  2,
	TransportLoRaWAN:    3,
	TransportUDP:        4,
	TransportQUIC:       4,
}

// Priority returns the transport-selection rank for k; lower is
// preferred.
func (k TransportKind) Priority() int {
	if p, ok := transportPriority[k]; ok {
		return p
	}
	return len(transportPriority)
}

// PeerAddress is a tagged sum over transport variants. Exactly one of
// the address fields is meaningful, selected by Kind.
type PeerAddress struct {
	Kind        TransportKind
	UDPAddr     string
	BluetoothID string
	WiFiAddr    string
	LoRaEUI     string
	QUICAddr    string
	MeshKey     [32]byte
}

// Peer is a routing-table entry: identity, its known addresses across
// transports, and the reputation score used to rank it.
type Peer struct {
	ID        NodeID
	Addresses []PeerAddress
	Score     PeerScore
}

// PeerScore is the composite reputation score from spec.md's peer
// scoring formula: type-weight + (1000/latency_ms)*10 + bandwidth*2 +
// reliability*50 + (10/hop_count) + freshness_decay(age_secs).
type PeerScore struct {
	TypeWeight  float64
	LatencyMs   float64
	BandwidthKB float64
	Reliability float64
	HopCount    int
	AgeSecs     float64
}

// freshnessWindow is the age beyond which a peer contributes zero
// freshness to its composite score.
const freshnessWindow = 5 * 60

// Composite computes the peer score s reduces to for ranking.
func (s PeerScore) Composite() float64 {
	latencyTerm := 0.0
	if s.LatencyMs > 0 {
		latencyTerm = (1000 / s.LatencyMs) * 10
	}
	hopTerm := 0.0
	if s.HopCount > 0 {
		hopTerm = 10 / float64(s.HopCount)
	}
	freshness := 0.0
	if s.AgeSecs < freshnessWindow {
		freshness = 1 - s.AgeSecs/freshnessWindow
	}
	return s.TypeWeight + latencyTerm + s.BandwidthKB*2 + s.Reliability*50 + hopTerm + freshness
}
