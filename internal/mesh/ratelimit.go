package mesh

import (
	"net"
	"sync"

	"golang.org/x/time/rate"
)

// RatePreset names one of the five fixed handshake rate-limit
// profiles a node can run under.
type RatePreset string

const (
	PresetPermissive RatePreset = "permissive"
	PresetDefault    RatePreset = "default"
	PresetStrict     RatePreset = "strict"
	PresetValidator  RatePreset = "validator"
	PresetSyncMode   RatePreset = "sync-mode"
)

// presetLimits maps each preset to its (handshakes_per_second,
// burst_capacity) pair.
var presetLimits = map[RatePreset]struct {
	rps   float64
	burst int
}{
	PresetPermissive: {1000, 5000},
	PresetDefault:    {10, 50},
	PresetStrict:     {5, 20},
	PresetValidator:  {200, 500},
	PresetSyncMode:   {100, 200},
}

// RateLimiter enforces a per-source-IP token bucket over handshake
// attempts, so an attacker flooding ClientHellos is rejected before
// any signature verification CPU is spent.
type RateLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

// NewRateLimiter builds a limiter under the named preset.
func NewRateLimiter(preset RatePreset) *RateLimiter {
	p, ok := presetLimits[preset]
	if !ok {
		p = presetLimits[PresetDefault]
	}
	return &RateLimiter{
		rps:     rate.Limit(p.rps),
		burst:   p.burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether a handshake attempt from addr may proceed,
// consuming one token on success.
func (rl *RateLimiter) Allow(addr net.Addr) bool {
	key := hostOf(addr)
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = rate.NewLimiter(rl.rps, rl.burst)
		rl.buckets[key] = b
	}
	rl.mu.Unlock()
	return b.Allow()
}

func hostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
