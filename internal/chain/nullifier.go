package chain

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultNullifierCacheSize is the default bound on the in-memory
// nullifier cache; entries evicted from memory are expected to still
// be queryable through Persister.
const DefaultNullifierCacheSize = 1_000_000

// Persister is the disk-backing contract for sets that overflow their
// in-memory cache. A nil Persister means the set is memory-only, which
// is acceptable for tests and short-lived edge nodes.
type Persister interface {
	Has(key [32]byte) bool
	Put(key [32]byte)
}

// NullifierSet is the monotonically growing, append-only set of spent
// nullifiers. Membership tests hit the in-memory LRU first and only
// fall through to Persister on a miss, keeping the hot path a single
// map lookup.
type NullifierSet struct {
	cache     *lru.Cache[[32]byte, struct{}]
	persister Persister
}

// NewNullifierSet creates a set bounded at size in-memory entries,
// optionally backed by persister for entries evicted from memory.
func NewNullifierSet(size int, persister Persister) (*NullifierSet, error) {
	cache, err := lru.New[[32]byte, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &NullifierSet{cache: cache, persister: persister}, nil
}

// Contains reports whether nullifier has already been inserted.
func (s *NullifierSet) Contains(nullifier [32]byte) bool {
	if s.cache.Contains(nullifier) {
		return true
	}
	if s.persister != nil {
		return s.persister.Has(nullifier)
	}
	return false
}

// Add inserts nullifier. Inserting an already-present nullifier is a
// no-op, preserving the append-only, idempotent contract.
func (s *NullifierSet) Add(nullifier [32]byte) {
	if s.Contains(nullifier) {
		return
	}
	s.cache.Add(nullifier, struct{}{})
	if s.persister != nil {
		s.persister.Put(nullifier)
	}
}

// Len returns the number of entries currently resident in memory. It
// is not the total set size once a Persister holds evicted entries.
func (s *NullifierSet) Len() int {
	return s.cache.Len()
}
