package chain

import (
	"container/heap"
	"sync"

	"github.com/google/uuid"

	"zhtp-network/internal/xerrors"
)

// PriorityClass orders transactions within the mempool independent of
// fee. Higher values are serviced first.
type PriorityClass uint8

const (
	PriorityLow PriorityClass = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

type entry struct {
	id         uuid.UUID
	tx         Transaction
	class      PriorityClass
	feePerByte float64
	arrival    uint64
	index      int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

// Less orders the heap so Pop returns the transaction the mempool
// should package into a block next: highest class, then highest
// fee-per-byte, then earliest arrival.
func (h entryHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.class != b.class {
		return a.class > b.class
	}
	if a.feePerByte != b.feePerByte {
		return a.feePerByte > b.feePerByte
	}
	return a.arrival < b.arrival
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Mempool is the priority-ordered pending-transaction pool. Capacity
// is enforced by evicting the lowest-priority, lowest-fee, oldest
// entry when a new transaction would exceed it.
type Mempool struct {
	mu       sync.Mutex
	heap     entryHeap
	byNullSet map[string]*entry
	capacity int
	clock    uint64
}

// NewMempool creates an empty pool bounded at capacity entries.
func NewMempool(capacity int) *Mempool {
	return &Mempool{
		byNullSet: make(map[string]*entry),
		capacity:  capacity,
	}
}

func nullifierKey(tx Transaction) string {
	b := make([]byte, 0, len(tx.Inputs)*32)
	for _, in := range tx.Inputs {
		b = append(b, in.Nullifier[:]...)
	}
	return string(b)
}

// Add inserts tx at the given priority class with the given
// fee-per-byte, returning the mempool-local identifier assigned to it
// (independent of the transaction's content hash, so it survives an
// RBF replacement's hash change while still letting external callers
// track a specific admission). If an existing pending transaction
// shares the same nullifier set, tx replaces it only if its fee is at
// least 110% of the existing entry's fee (RBF-style); otherwise Add
// rejects it. When the pool is over capacity after insertion, the
// lowest-ranked entry is evicted.
func (m *Mempool) Add(tx Transaction, class PriorityClass, feePerByte float64) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := nullifierKey(tx)
	if existing, ok := m.byNullSet[key]; ok && key != "" {
		if feePerByte < existing.feePerByte*1.10 {
			return uuid.Nil, xerrors.New(xerrors.KindResource, "chain.Mempool.Add", xerrors.ErrInvalidTransaction)
		}
		heap.Remove(&m.heap, existing.index)
		delete(m.byNullSet, key)
	}

	m.clock++
	e := &entry{id: uuid.New(), tx: tx, class: class, feePerByte: feePerByte, arrival: m.clock}
	heap.Push(&m.heap, e)
	if key != "" {
		m.byNullSet[key] = e
	}

	if m.capacity > 0 && m.heap.Len() > m.capacity {
		m.evictWorst()
	}
	return e.id, nil
}

// evictWorst removes the lowest-priority entry, breaking ties by lowest
// fee-per-byte and then by oldest arrival. The heap only keeps the best
// entry at its root, so every entry is scanned.
func (m *Mempool) evictWorst() {
	if len(m.heap) == 0 {
		return
	}
	worstIdx := 0
	for i := 1; i < len(m.heap); i++ {
		a, w := m.heap[i], m.heap[worstIdx]
		if a.class != w.class {
			if a.class < w.class {
				worstIdx = i
			}
			continue
		}
		if a.feePerByte != w.feePerByte {
			if a.feePerByte < w.feePerByte {
				worstIdx = i
			}
			continue
		}
		if a.arrival < w.arrival {
			worstIdx = i
		}
	}
	worst := heap.Remove(&m.heap, worstIdx).(*entry)
	for k, e := range m.byNullSet {
		if e == worst {
			delete(m.byNullSet, k)
			break
		}
	}
}

// Pick removes and returns up to max transactions in priority order,
// suitable for packaging into a proposed block.
func (m *Mempool) Pick(max int) []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Transaction, 0, max)
	for len(out) < max && m.heap.Len() > 0 {
		e := heap.Pop(&m.heap).(*entry)
		delete(m.byNullSet, nullifierKey(e.tx))
		out = append(out, e.tx)
	}
	return out
}

// Len reports the number of pending transactions.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heap.Len()
}
