package storage

import (
	"encoding/hex"
	"sync"

	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"go.uber.org/zap"
	"lukechampine.com/blake3"

	"zhtp-network/internal/xerrors"
)

// blake3MultihashCode is the multicodec table entry for BLAKE3-256,
// used to wrap a chunk hash as a self-describing multihash instead of
// a bare digest.
const blake3MultihashCode = 0x1e

// BlockReference identifies a deduplicated chunk by its content hash
// and records its size for accounting without re-reading the chunk.
type BlockReference struct {
	Hash [32]byte
	Size int
}

// HashChunk derives a chunk's content address.
func HashChunk(data []byte) [32]byte {
	return blake3.Sum256(data)
}

func hex32(hash [32]byte) string {
	return hex.EncodeToString(hash[:])
}

// ContentID wraps ref's hash as a CIDv1 over a BLAKE3-256 multihash,
// the address form used when a chunk reference crosses into
// IPFS-compatible tooling or wire messages that expect a self-
// describing identifier rather than a bare 32-byte digest.
func (ref BlockReference) ContentID() (cid.Cid, error) {
	digest, err := mh.Encode(ref.Hash[:], blake3MultihashCode)
	if err != nil {
		return cid.Undef, xerrors.New(xerrors.KindResource, "storage.BlockReference.ContentID", err)
	}
	return cid.NewCidV1(cid.Raw, digest), nil
}

// Stats tracks deduplication effectiveness across a Store's lifetime.
type Stats struct {
	UniqueChunks    uint64
	DuplicateChunks uint64
	BytesStored     uint64
	BytesDeduped    uint64
}

// Store is a BLAKE3-keyed, reference-counted chunk store: a chunk
// already present under its content hash is never written twice, only
// reference-counted, matching the dedup behavior of content-addressed
// stores such as IPFS's blockstore.
type Store struct {
	mu     sync.RWMutex
	data   map[[32]byte][]byte
	refs   map[[32]byte]int
	stats  Stats
	logger *zap.Logger
}

// NewStore creates an empty chunk store, logging through zap's global
// logger as zap.L() returns it when NewStore runs. No code in this
// module replaces that global logger.
func NewStore() *Store {
	return &Store{data: make(map[[32]byte][]byte), refs: make(map[[32]byte]int), logger: zap.L()}
}

// Put stores data under its content hash, incrementing its reference
// count if already present, and returns the resulting BlockReference.
func (s *Store) Put(data []byte) BlockReference {
	hash := HashChunk(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[hash]; exists {
		s.refs[hash]++
		s.stats.DuplicateChunks++
		s.stats.BytesDeduped += uint64(len(data))
		s.logger.Debug("chunk deduplicated", zap.String("hash", hex32(hash)), zap.Int("refs", s.refs[hash]))
		return BlockReference{Hash: hash, Size: len(data)}
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.data[hash] = stored
	s.refs[hash] = 1
	s.stats.UniqueChunks++
	s.stats.BytesStored += uint64(len(data))
	s.logger.Debug("chunk stored", zap.String("hash", hex32(hash)), zap.Int("bytes", len(data)))
	return BlockReference{Hash: hash, Size: len(data)}
}

// Get retrieves a chunk by content hash.
func (s *Store) Get(hash [32]byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[hash]
	if !ok {
		return nil, xerrors.New(xerrors.KindResource, "storage.Store.Get", xerrors.ErrNotAvailable)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Release drops one reference to hash, deleting the chunk once its
// reference count reaches zero.
func (s *Store) Release(hash [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.refs[hash]
	if !ok {
		return
	}
	if n <= 1 {
		delete(s.refs, hash)
		delete(s.data, hash)
		return
	}
	s.refs[hash] = n - 1
}

// Stats returns a snapshot of dedup accounting.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
