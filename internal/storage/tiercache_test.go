package storage

import "testing"

func TestTieredCachePutStartsCold(t *testing.T) {
	c, err := NewTieredCache(10, 10, 10)
	if err != nil {
		t.Fatalf("NewTieredCache failed: %v", err)
	}
	hash := [32]byte{1}
	c.Put(hash, []byte("data"))
	tier, ok := c.TierOf(hash)
	if !ok || tier != TierCold {
		t.Fatalf("expected a freshly-put entry to start cold, got %v (ok=%v)", tier, ok)
	}
}

func TestTieredCachePromotesOnRepeatedAccess(t *testing.T) {
	c, err := NewTieredCache(10, 10, 10)
	if err != nil {
		t.Fatalf("NewTieredCache failed: %v", err)
	}
	hash := [32]byte{2}
	c.Put(hash, []byte("data"))

	for i := 0; i < warmPromoteThreshold; i++ {
		if _, ok := c.Get(hash); !ok {
			t.Fatalf("expected Get to find the entry on access %d", i)
		}
	}
	tier, _ := c.TierOf(hash)
	if tier != TierWarm {
		t.Fatalf("expected promotion to warm after %d accesses, got %v", warmPromoteThreshold, tier)
	}

	for i := warmPromoteThreshold; i < hotPromoteThreshold; i++ {
		c.Get(hash)
	}
	tier, _ = c.TierOf(hash)
	if tier != TierHot {
		t.Fatalf("expected promotion to hot after %d accesses, got %v", hotPromoteThreshold, tier)
	}
}

func TestTieredCacheGetMissingReturnsFalse(t *testing.T) {
	c, err := NewTieredCache(10, 10, 10)
	if err != nil {
		t.Fatalf("NewTieredCache failed: %v", err)
	}
	if _, ok := c.Get([32]byte{9}); ok {
		t.Fatalf("expected a miss for an absent hash")
	}
}

func TestTierString(t *testing.T) {
	cases := map[Tier]string{TierHot: "hot", TierWarm: "warm", TierCold: "cold"}
	for tier, want := range cases {
		if got := tier.String(); got != want {
			t.Fatalf("Tier(%d).String() = %q, want %q", tier, got, want)
		}
	}
}
