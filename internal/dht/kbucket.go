package dht

import (
	"sort"
	"sync"
)

// BucketSize is Kademlia's k — both the max entries per bucket and the
// count returned by a closest-N query.
const BucketSize = 20

// numBuckets is one per bit of a 256-bit id.
const numBuckets = 256

// PingFunc lets Table's eviction policy probe a peer without Table
// depending on a concrete transport.
type PingFunc func(Peer) bool

// Table is the Kademlia routing table: 256 buckets of up to
// BucketSize peers, keyed by bucket index = bit length of the XOR
// distance to the local id, minus one.
type Table struct {
	mu      sync.Mutex
	local   NodeID
	buckets [numBuckets][]Peer
	ping    PingFunc
}

// NewTable creates a table for local, using ping to decide whether a
// stale bucket entry should be evicted in favor of a new candidate.
func NewTable(local NodeID, ping PingFunc) *Table {
	return &Table{local: local, ping: ping}
}

func (t *Table) bucketIndex(id NodeID) int {
	d := Distance(t.local, id)
	bits := d.BitLen()
	if bits == 0 {
		return 0
	}
	return bits - 1
}

// Insert adds or refreshes peer p. If the bucket has space, p is
// appended. If the bucket is full, the least-recently-seen entry (the
// head of the slice) is pinged: if it responds, p is discarded;
// otherwise the stale entry is evicted and p takes its place at the
// tail (most-recently-seen).
func (t *Table) Insert(p Peer) {
	if p.ID == t.local {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.bucketIndex(p.ID)
	bucket := t.buckets[idx]

	for i, existing := range bucket {
		if existing.ID == p.ID {
			bucket = append(bucket[:i], bucket[i+1:]...)
			t.buckets[idx] = append(bucket, p)
			return
		}
	}

	if len(bucket) < BucketSize {
		t.buckets[idx] = append(bucket, p)
		return
	}

	stale := bucket[0]
	if t.ping != nil && t.ping(stale) {
		return
	}
	t.buckets[idx] = append(bucket[1:], p)
}

// Nearest returns up to count peers ranked by XOR distance to target,
// searching outward from target's own bucket index.
func (t *Table) Nearest(target NodeID, count int) []Peer {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.bucketIndex(target)
	candidates := make([]Peer, 0, count*2)
	for offset := 0; offset < numBuckets && len(candidates) < count*2; offset++ {
		for j, delta := range []int{idx + offset, idx - offset} {
			if delta < 0 || delta >= numBuckets || (offset == 0 && j == 1) {
				continue
			}
			candidates = append(candidates, t.buckets[delta]...)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return Distance(candidates[i].ID, target).Cmp(Distance(candidates[j].ID, target)) < 0
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates
}

// Remove deletes id from the table, if present.
func (t *Table) Remove(id NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.bucketIndex(id)
	bucket := t.buckets[idx]
	for i, p := range bucket {
		if p.ID == id {
			t.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}
