package chain

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultUTXOCacheSize bounds the in-memory UTXO projection.
const DefaultUTXOCacheSize = 1_000_000

// UTXOSet is the set of unspent output commitments and their amounts.
// Unlike NullifierSet it supports removal, since spending an output
// retires it.
type UTXOSet struct {
	cache     *lru.Cache[[32]byte, uint64]
	persister AmountPersister
}

// AmountPersister is the disk-backing contract for UTXOSet entries
// evicted from memory.
type AmountPersister interface {
	Get(key [32]byte) (uint64, bool)
	Put(key [32]byte, amount uint64)
	Delete(key [32]byte)
}

// NewUTXOSet creates a set bounded at size in-memory entries.
func NewUTXOSet(size int, persister AmountPersister) (*UTXOSet, error) {
	cache, err := lru.New[[32]byte, uint64](size)
	if err != nil {
		return nil, err
	}
	return &UTXOSet{cache: cache, persister: persister}, nil
}

// Exists reports whether commitment is currently unspent.
func (s *UTXOSet) Exists(commitment [32]byte) bool {
	_, ok := s.Amount(commitment)
	return ok
}

// Amount returns the output's amount and whether it is present.
func (s *UTXOSet) Amount(commitment [32]byte) (uint64, bool) {
	if amt, ok := s.cache.Get(commitment); ok {
		return amt, true
	}
	if s.persister != nil {
		return s.persister.Get(commitment)
	}
	return 0, false
}

// Add records a newly created unspent output.
func (s *UTXOSet) Add(commitment [32]byte, amount uint64) {
	s.cache.Add(commitment, amount)
	if s.persister != nil {
		s.persister.Put(commitment, amount)
	}
}

// Remove retires a spent output.
func (s *UTXOSet) Remove(commitment [32]byte) {
	s.cache.Remove(commitment)
	if s.persister != nil {
		s.persister.Delete(commitment)
	}
}
