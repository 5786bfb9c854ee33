package mesh

import (
	"testing"
	"time"
)

func TestNonceCacheDepositRejectsReplay(t *testing.T) {
	c := NewNonceCache(10, time.Minute)
	n := [32]byte{1}
	now := time.Now()

	ok, full := c.Deposit(n, now)
	if !ok || full {
		t.Fatalf("expected the first deposit of a fresh nonce to succeed")
	}
	ok, full = c.Deposit(n, now)
	if ok || full {
		t.Fatalf("expected a replayed nonce to be rejected, not reported full")
	}
}

func TestNonceCacheExpiresEntries(t *testing.T) {
	c := NewNonceCache(10, time.Millisecond)
	n := [32]byte{2}
	now := time.Now()
	if ok, _ := c.Deposit(n, now); !ok {
		t.Fatalf("expected the first deposit to succeed")
	}
	later := now.Add(time.Second)
	if ok, _ := c.Deposit(n, later); !ok {
		t.Fatalf("expected the nonce to be eligible again once its TTL has elapsed")
	}
}

func TestNonceCacheReportsFullWhenAtCapacity(t *testing.T) {
	c := NewNonceCache(2, time.Minute)
	now := time.Now()
	c.Deposit([32]byte{1}, now)
	c.Deposit([32]byte{2}, now)

	ok, full := c.Deposit([32]byte{3}, now)
	if ok || !full {
		t.Fatalf("expected a new nonce over capacity to be rejected as full, got ok=%v full=%v", ok, full)
	}
}

func TestNonceCacheLenAndUtilization(t *testing.T) {
	c := NewNonceCache(4, time.Minute)
	now := time.Now()
	c.Deposit([32]byte{1}, now)
	c.Deposit([32]byte{2}, now)

	if got := c.Len(); got != 2 {
		t.Fatalf("expected Len 2, got %d", got)
	}
	if got := c.Utilization(); got != 0.5 {
		t.Fatalf("expected utilization 0.5, got %f", got)
	}
}
