package storage

import "testing"

func TestStorePutDeduplicatesIdenticalContent(t *testing.T) {
	s := NewStore()
	a := s.Put([]byte("hello"))
	b := s.Put([]byte("hello"))

	if a.Hash != b.Hash {
		t.Fatalf("expected identical content to hash the same")
	}
	stats := s.Stats()
	if stats.UniqueChunks != 1 || stats.DuplicateChunks != 1 {
		t.Fatalf("expected 1 unique and 1 duplicate, got %+v", stats)
	}
}

func TestStoreGetReturnsIndependentCopy(t *testing.T) {
	s := NewStore()
	ref := s.Put([]byte("hello"))
	got, err := s.Get(ref.Hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got[0] = 'X'
	again, err := s.Get(ref.Hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(again) != "hello" {
		t.Fatalf("mutating a returned slice must not affect stored data, got %q", again)
	}
}

func TestStoreGetMissingFails(t *testing.T) {
	s := NewStore()
	if _, err := s.Get([32]byte{1}); err == nil {
		t.Fatalf("expected Get on an absent hash to fail")
	}
}

func TestStoreReleaseDropsOnLastReference(t *testing.T) {
	s := NewStore()
	ref := s.Put([]byte("hello"))
	s.Put([]byte("hello")) // refcount 2

	s.Release(ref.Hash)
	if _, err := s.Get(ref.Hash); err != nil {
		t.Fatalf("expected the chunk to survive one release out of two references")
	}

	s.Release(ref.Hash)
	if _, err := s.Get(ref.Hash); err == nil {
		t.Fatalf("expected the chunk to be gone after the last reference is released")
	}
}

func TestBlockReferenceContentID(t *testing.T) {
	ref := BlockReference{Hash: HashChunk([]byte("hello")), Size: 5}
	id, err := ref.ContentID()
	if err != nil {
		t.Fatalf("ContentID failed: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("expected a defined CID")
	}
}
