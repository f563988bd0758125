package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	xrate "golang.org/x/time/rate"
)

func TestManager_BurstThenBlock(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 1, Burst: 3})

	allowed := 0
	for i := 0; i < 10; i++ {
		if mgr.Allow("client-a") {
			allowed++
		}
	}

	if allowed != 3 {
		t.Errorf("expected 3 allowed from burst, got %d", allowed)
	}
}

func TestManager_GetLimiter(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 10, Burst: 5})

	l1 := mgr.GetLimiter("client-a")
	l2 := mgr.GetLimiter("client-a")
	l3 := mgr.GetLimiter("client-b")

	if l1 != l2 {
		t.Error("same key should return the same limiter instance")
	}
	if l1 == l3 {
		t.Error("different keys should return different limiter instances")
	}
}

func TestManager_ZeroRateIsUnlimited(t *testing.T) {
	mgr := NewManager(Config{})

	if got := mgr.GetLimiter("k").Limit(); got != xrate.Inf {
		t.Errorf("expected unlimited limiter, got %v", got)
	}
	for i := 0; i < 100; i++ {
		if !mgr.Allow("k") {
			t.Fatalf("request %d unexpectedly throttled", i)
		}
	}
}

func TestManager_Wait_Success(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 100, Burst: 1})
	mgr.Allow("client-x")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := mgr.Wait(ctx, "client-x"); err != nil {
		t.Fatalf("expected Wait to succeed, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Wait took too long: %v", elapsed)
	}
}

func TestManager_Wait_ContextCanceled(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 1, Burst: 1})
	mgr.Allow("client-x")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := mgr.Wait(ctx, "client-x"); err == nil {
		t.Fatal("expected context error, got nil")
	}
}

func TestManager_ConcurrentGetLimiter(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 10, Burst: 5})

	var wg sync.WaitGroup
	limiters := make([]*xrate.Limiter, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			limiters[idx] = mgr.GetLimiter("shared-key")
		}(i)
	}
	wg.Wait()

	for i := 1; i < 20; i++ {
		if limiters[i] != limiters[0] {
			t.Fatalf("goroutine %d got a different limiter instance", i)
		}
	}
}

func TestManager_Prune(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mgr := NewManager(Config{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	mgr.now = func() time.Time { return now }

	mgr.GetLimiter("old")
	now = now.Add(2 * time.Minute)
	mgr.GetLimiter("fresh")

	if removed := mgr.Prune(); removed != 1 {
		t.Errorf("expected 1 pruned limiter, got %d", removed)
	}
	if mgr.Len() != 1 {
		t.Errorf("expected 1 remaining limiter, got %d", mgr.Len())
	}
}

func TestKey(t *testing.T) {
	if Key("") != "anonymous" {
		t.Errorf("expected anonymous key for empty identity")
	}
	if Key("token-a") != Key("token-a") {
		t.Error("key must be deterministic")
	}
	if Key("token-a") == Key("token-b") {
		t.Error("different identities must not collide")
	}
	if Key("token-a") == "token-a" {
		t.Error("key must not expose the identity")
	}
}
