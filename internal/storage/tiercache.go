package storage

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Tier names the cache level a chunk currently lives in.
type Tier uint8

const (
	TierCold Tier = iota
	TierWarm
	TierHot
)

func (t Tier) String() string {
	switch t {
	case TierHot:
		return "hot"
	case TierWarm:
		return "warm"
	default:
		return "cold"
	}
}

// promotion thresholds, counted in accesses observed by TieredCache.
const (
	warmPromoteThreshold = 3
	hotPromoteThreshold  = 10
)

// TieredCache places chunk data across hot/warm/cold LRU tiers,
// promoting an entry as it accumulates accesses. There is no demotion:
// when a tier is full, its least recently used entry leaves the cache
// rather than moving to a lower tier.
type TieredCache struct {
	mu       sync.Mutex
	hot      *lru.Cache[[32]byte, []byte]
	warm     *lru.Cache[[32]byte, []byte]
	cold     *lru.Cache[[32]byte, []byte]
	accesses map[[32]byte]int
	tierOf   map[[32]byte]Tier
}

// NewTieredCache builds a three-tier cache with the given per-tier
// capacities.
func NewTieredCache(hotSize, warmSize, coldSize int) (*TieredCache, error) {
	hot, err := lru.New[[32]byte, []byte](hotSize)
	if err != nil {
		return nil, err
	}
	warm, err := lru.New[[32]byte, []byte](warmSize)
	if err != nil {
		return nil, err
	}
	cold, err := lru.New[[32]byte, []byte](coldSize)
	if err != nil {
		return nil, err
	}
	return &TieredCache{
		hot:      hot,
		warm:     warm,
		cold:     cold,
		accesses: make(map[[32]byte]int),
		tierOf:   make(map[[32]byte]Tier),
	}, nil
}

// Put inserts data at the cold tier, the entry point for anything not
// yet observed to be hot.
func (c *TieredCache) Put(hash [32]byte, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cold.Add(hash, data)
	c.tierOf[hash] = TierCold
}

// Get retrieves data for hash, recording an access and promoting the
// entry to warm or hot once it crosses the relevant threshold.
func (c *TieredCache) Get(hash [32]byte) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var data []byte
	var ok bool
	if data, ok = c.hot.Get(hash); ok {
	} else if data, ok = c.warm.Get(hash); ok {
	} else if data, ok = c.cold.Get(hash); ok {
	} else {
		return nil, false
	}

	c.accesses[hash]++
	c.promote(hash, data)
	return data, true
}

func (c *TieredCache) promote(hash [32]byte, data []byte) {
	n := c.accesses[hash]
	current := c.tierOf[hash]

	target := current
	switch {
	case n >= hotPromoteThreshold:
		target = TierHot
	case n >= warmPromoteThreshold && current == TierCold:
		target = TierWarm
	}
	if target == current {
		return
	}

	switch current {
	case TierCold:
		c.cold.Remove(hash)
	case TierWarm:
		c.warm.Remove(hash)
	}
	switch target {
	case TierHot:
		c.hot.Add(hash, data)
	case TierWarm:
		c.warm.Add(hash, data)
	}
	c.tierOf[hash] = target
}

// TierOf reports which tier hash currently occupies, if present.
func (c *TieredCache) TierOf(hash [32]byte) (Tier, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tierOf[hash]
	if !ok {
		return t, false
	}
	var present bool
	switch t {
	case TierHot:
		present = c.hot.Contains(hash)
	case TierWarm:
		present = c.warm.Contains(hash)
	default:
		present = c.cold.Contains(hash)
	}
	return t, present
}
