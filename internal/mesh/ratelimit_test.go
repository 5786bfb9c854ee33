package mesh

import (
	"net"
	"testing"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(PresetStrict) // burst 20
	addr := &net.TCPAddr{IP: net.ParseIP("198.51.100.1"), Port: 1}
	for i := 0; i < 20; i++ {
		if !rl.Allow(addr) {
			t.Fatalf("expected attempt %d to be allowed within the burst budget", i)
		}
	}
}

func TestRateLimiterRejectsBeyondBurst(t *testing.T) {
	rl := NewRateLimiter(PresetStrict) // rps 5, burst 20
	addr := &net.TCPAddr{IP: net.ParseIP("198.51.100.2"), Port: 1}
	for i := 0; i < 20; i++ {
		rl.Allow(addr)
	}
	if rl.Allow(addr) {
		t.Fatalf("expected the 21st immediate attempt to exceed the burst budget")
	}
}

func TestRateLimiterTracksSourcesIndependently(t *testing.T) {
	rl := NewRateLimiter(PresetStrict)
	a := &net.TCPAddr{IP: net.ParseIP("198.51.100.3"), Port: 1}
	b := &net.TCPAddr{IP: net.ParseIP("198.51.100.4"), Port: 1}

	for i := 0; i < 20; i++ {
		rl.Allow(a)
	}
	if rl.Allow(a) {
		t.Fatalf("expected source a to have exhausted its burst")
	}
	if !rl.Allow(b) {
		t.Fatalf("expected an unrelated source b to have its own fresh bucket")
	}
}

func TestRateLimiterUnknownPresetFallsBackToDefault(t *testing.T) {
	rl := NewRateLimiter(RatePreset("not-a-real-preset"))
	if rl.rps != presetLimits[PresetDefault].rps {
		t.Fatalf("expected an unknown preset to fall back to the default rps")
	}
}

func TestHostOfStripsPort(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("198.51.100.5"), Port: 9999}
	if got := hostOf(addr); got != "198.51.100.5" {
		t.Fatalf("expected host without port, got %q", got)
	}
}

func TestHostOfNilAddr(t *testing.T) {
	if got := hostOf(nil); got != "" {
		t.Fatalf("expected an empty string for a nil addr, got %q", got)
	}
}
