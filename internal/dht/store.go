package dht

import (
	"sync"
	"time"

	"zhtp-network/internal/xerrors"
)

// MaxReplication bounds the replication factor a Store request may
// request.
const MaxReplication = 20

// Index is the local content index: content hash -> (domain, path)
// metadata and expiry, the record Query answers from on a hit.
type Index struct {
	mu      sync.RWMutex
	entries map[string]IndexEntry
}

// IndexEntry is one local index record.
type IndexEntry struct {
	ContentHash [32]byte
	Expiry      time.Time
}

// NewIndex creates an empty local index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]IndexEntry)}
}

func indexKey(domain, path string) string { return domain + "\x00" + path }

// Put records an index entry for (domain, path).
func (idx *Index) Put(domain, path string, hash [32]byte, ttl time.Duration) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[indexKey(domain, path)] = IndexEntry{ContentHash: hash, Expiry: time.Now().Add(ttl)}
}

// Get looks up (domain, path), reporting a hit only if the entry has
// not expired.
func (idx *Index) Get(domain, path string) (IndexEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[indexKey(domain, path)]
	if !ok || time.Now().After(e.Expiry) {
		return IndexEntry{}, false
	}
	return e, true
}

// ReplicationScheduler hands a stored chunk's replication off to the k
// nearest peers by content hash, independent of the chunk-store
// backend — internal/storage supplies the actual chunk bytes.
type ReplicationScheduler interface {
	ScheduleReplication(contentHash [32]byte, targets []Peer) error
}

// StoreRequest is the Store RPC's payload.
type StoreRequest struct {
	ContentHash [32]byte
	Chunk       []byte
	Replication int
}

// StoreAck is Store's reply: an expiry timestamp for the stored chunk.
type StoreAck struct {
	Expiry time.Time
}

// ChunkPersister is the local storage hook Store writes through to.
type ChunkPersister interface {
	Put(contentHash [32]byte, chunk []byte) error
}

// HandleStore validates req.Replication, persists the chunk, schedules
// replication to the replicationFactor nearest peers by content hash,
// and returns the StoreAck the caller sends back to the requester.
func HandleStore(req StoreRequest, table *Table, persister ChunkPersister, scheduler ReplicationScheduler, ttl time.Duration) (StoreAck, error) {
	if req.Replication > MaxReplication {
		return StoreAck{}, xerrors.New(xerrors.KindTransport, "dht.HandleStore", xerrors.ErrReplicationExceeded)
	}
	if err := persister.Put(req.ContentHash, req.Chunk); err != nil {
		return StoreAck{}, err
	}
	targets := table.Nearest(NodeID(req.ContentHash), req.Replication)
	if err := scheduler.ScheduleReplication(req.ContentHash, targets); err != nil {
		return StoreAck{}, err
	}
	return StoreAck{Expiry: time.Now().Add(ttl)}, nil
}

// QueryRequest is the Query RPC's payload.
type QueryRequest struct {
	Domain string
	Path   string
	Target NodeID
}

// QueryResponse is either a hit (ContentHash + Expiry set) or a miss
// (Suggestions populated with closer peers).
type QueryResponse struct {
	Hit         bool
	ContentHash [32]byte
	Expiry      time.Time
	Suggestions []Peer
}

// HandleQuery answers a Query RPC from the local index, falling back
// to peer suggestions on a miss.
func HandleQuery(req QueryRequest, idx *Index, table *Table) QueryResponse {
	if e, ok := idx.Get(req.Domain, req.Path); ok {
		return QueryResponse{Hit: true, ContentHash: e.ContentHash, Expiry: e.Expiry}
	}
	return QueryResponse{Suggestions: table.Nearest(req.Target, BucketSize)}
}
