package http

import (
	"testing"
	"time"
)

func TestRateLimiter_RefillsOverWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("expected burst of 2 to pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("expected third request to be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("clients must not share a bucket")
	}

	now = now.Add(30 * time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("expected one token after half a window")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("expected bucket to be empty again")
	}
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("idle")
	now = now.Add(limiterCleanupThreshold + time.Second)
	rl.Allow("active")
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["idle"]; ok {
		t.Error("expected idle client to be removed")
	}
	if _, ok := rl.clients["active"]; !ok {
		t.Error("expected active client to be kept")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	rl.Stop()
}
