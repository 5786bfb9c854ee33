package chain

import "testing"

func TestNullifierSetAddIsIdempotent(t *testing.T) {
	s, err := NewNullifierSet(10, nil)
	if err != nil {
		t.Fatalf("NewNullifierSet failed: %v", err)
	}
	n := [32]byte{1, 2, 3}
	if s.Contains(n) {
		t.Fatalf("fresh set should not contain anything")
	}
	s.Add(n)
	s.Add(n)
	if !s.Contains(n) {
		t.Fatalf("expected set to contain the added nullifier")
	}
	if s.Len() != 1 {
		t.Fatalf("expected adding the same nullifier twice to be a no-op, got len=%d", s.Len())
	}
}

type memPersister struct {
	seen map[[32]byte]bool
}

func (p *memPersister) Has(key [32]byte) bool {
	return p.seen[key]
}

func (p *memPersister) Put(key [32]byte) {
	p.seen[key] = true
}

func TestNullifierSetFallsThroughToPersister(t *testing.T) {
	p := &memPersister{seen: map[[32]byte]bool{{9}: true}}
	s, err := NewNullifierSet(10, p)
	if err != nil {
		t.Fatalf("NewNullifierSet failed: %v", err)
	}
	if !s.Contains([32]byte{9}) {
		t.Fatalf("expected persister-backed nullifier to be reported present")
	}
}
