package storage

import (
	"sync"

	"zhtp-network/internal/dht"
	"zhtp-network/internal/xerrors"
)

// msgKind tags a replication gossip message, mirroring the
// inventory/getdata/data shape used for decentralized block
// propagation: announce what you have, let peers pull what they lack.
type msgKind uint8

const (
	msgInventory msgKind = iota
	msgRequest
	msgChunk
)

// InventoryMsg announces locally-held content hashes.
type InventoryMsg struct {
	Kind   msgKind
	Hashes [][32]byte
}

// RequestMsg asks for specific content hashes by value.
type RequestMsg struct {
	Kind   msgKind
	Hashes [][32]byte
}

// ChunkMsg carries one requested chunk's bytes plus the sender's
// vector clock for the content hash, so the receiver can detect
// concurrent conflicting writes instead of blindly overwriting.
type ChunkMsg struct {
	Kind  msgKind
	Hash  [32]byte
	Data  []byte
	Clock VectorClock
}

// Sender abstracts the transport a Replicator gossips inventory and
// chunk data over. internal/dht's Multiplexer sends raw payloads only
// and does not implement it.
type Sender interface {
	SendInventory(peer dht.Peer, msg InventoryMsg) error
	SendRequest(peer dht.Peer, msg RequestMsg) error
	SendChunk(peer dht.Peer, msg ChunkMsg) error
}

// Replicator pushes newly-stored chunks to the k nearest peers by
// content hash and reconciles concurrent writes to the same hash via
// VectorClock comparison, merging the clocks. A content hash names one
// byte sequence, so no tiebreak between copies is made.
type Replicator struct {
	mu       sync.Mutex
	store    *Store
	clocks   map[[32]byte]VectorClock
	replicaID [32]byte
	sender   Sender
}

// NewReplicator builds a Replicator over store, tagging its own
// writes with replicaID in vector clocks.
func NewReplicator(store *Store, replicaID [32]byte, sender Sender) *Replicator {
	return &Replicator{
		store:     store,
		clocks:    make(map[[32]byte]VectorClock),
		replicaID: replicaID,
		sender:    sender,
	}
}

// LocalWrite stores data, bumps its vector clock for this replica, and
// pushes it out to targets (typically the DHT's k-nearest-by-hash
// peers from dht.HandleStore's replication scheduling).
func (r *Replicator) LocalWrite(data []byte, targets []dht.Peer) (BlockReference, error) {
	ref := r.store.Put(data)

	r.mu.Lock()
	clock := r.clocks[ref.Hash]
	if clock == nil {
		clock = NewVectorClock()
	}
	clock.Increment(r.replicaID)
	r.clocks[ref.Hash] = clock
	snapshot := clock.Clone()
	r.mu.Unlock()

	for _, peer := range targets {
		if err := r.sender.SendChunk(peer, ChunkMsg{Kind: msgChunk, Hash: ref.Hash, Data: data, Clock: snapshot}); err != nil {
			return ref, xerrors.New(xerrors.KindTransport, "storage.Replicator.LocalWrite", err)
		}
	}
	return ref, nil
}

// ReceiveChunk applies an incoming ChunkMsg, accepting it outright
// when it strictly follows the locally-known clock, merging and
// keeping the existing copy when the incoming clock is stale or
// equal, and on a genuine concurrency conflict merging the two clocks
// and storing the data (both copies carry the same content hash, so
// their bytes are identical).
func (r *Replicator) ReceiveChunk(msg ChunkMsg) error {
	if HashChunk(msg.Data) != msg.Hash {
		return xerrors.New(xerrors.KindIntegrity, "storage.Replicator.ReceiveChunk", xerrors.ErrHashMismatch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.clocks[msg.Hash]
	if existing == nil {
		r.clocks[msg.Hash] = msg.Clock.Clone()
		r.store.Put(msg.Data)
		return nil
	}

	switch existing.Compare(msg.Clock) {
	case OrderAfter, OrderEqual:
		// Local copy already dominates or matches; nothing to do.
	case OrderBefore:
		existing.Merge(msg.Clock)
		r.store.Put(msg.Data)
	case OrderConcurrent:
		existing.Merge(msg.Clock)
		r.store.Put(msg.Data)
	}
	return nil
}

// Inventory lists every content hash this replicator currently holds
// a clock for, the payload of a gossip InventoryMsg.
func (r *Replicator) Inventory() []InventoryMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	hashes := make([][32]byte, 0, len(r.clocks))
	for h := range r.clocks {
		hashes = append(hashes, h)
	}
	return []InventoryMsg{{Kind: msgInventory, Hashes: hashes}}
}

// Missing filters a remote InventoryMsg down to hashes this replicator
// does not yet hold, the set it should request.
func (r *Replicator) Missing(remote InventoryMsg) RequestMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	var missing [][32]byte
	for _, h := range remote.Hashes {
		if _, ok := r.clocks[h]; !ok {
			missing = append(missing, h)
		}
	}
	return RequestMsg{Kind: msgRequest, Hashes: missing}
}
