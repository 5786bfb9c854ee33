package chain

import "testing"

func TestUTXOSetAddExistsRemove(t *testing.T) {
	s, err := NewUTXOSet(10, nil)
	if err != nil {
		t.Fatalf("NewUTXOSet failed: %v", err)
	}
	c := [32]byte{1}
	if s.Exists(c) {
		t.Fatalf("fresh set should not contain anything")
	}
	s.Add(c, 100)
	if !s.Exists(c) {
		t.Fatalf("expected commitment to exist after Add")
	}
	amt, ok := s.Amount(c)
	if !ok || amt != 100 {
		t.Fatalf("expected amount 100, got %d (ok=%v)", amt, ok)
	}
	s.Remove(c)
	if s.Exists(c) {
		t.Fatalf("expected commitment to be gone after Remove")
	}
}

type memAmountPersister struct {
	amounts map[[32]byte]uint64
}

func (p *memAmountPersister) Get(key [32]byte) (uint64, bool) {
	v, ok := p.amounts[key]
	return v, ok
}

func (p *memAmountPersister) Put(key [32]byte, amount uint64) {
	p.amounts[key] = amount
}

func (p *memAmountPersister) Delete(key [32]byte) {
	delete(p.amounts, key)
}

func TestUTXOSetFallsThroughToPersister(t *testing.T) {
	p := &memAmountPersister{amounts: map[[32]byte]uint64{{5}: 50}}
	s, err := NewUTXOSet(10, p)
	if err != nil {
		t.Fatalf("NewUTXOSet failed: %v", err)
	}
	amt, ok := s.Amount([32]byte{5})
	if !ok || amt != 50 {
		t.Fatalf("expected persister-backed amount 50, got %d (ok=%v)", amt, ok)
	}
}
