package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter_MinimumSpacing(t *testing.T) {
	const rps = 50.0
	const n = 10

	l := NewLimiter(rps)
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	min := time.Duration(float64(n-1) / rps * float64(time.Second))
	if elapsed < min {
		t.Errorf("%d permits took %v, expected at least %v", n, elapsed, min)
	}
}

func TestLimiter_ConcurrentCallers(t *testing.T) {
	const rps = 100.0
	const n = 20

	l := NewLimiter(rps)
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(context.Background()); err != nil {
				t.Errorf("wait: %v", err)
			}
		}()
	}
	wg.Wait()

	min := time.Duration(float64(n-1) / rps * float64(time.Second))
	if elapsed := time.Since(start); elapsed < min {
		t.Errorf("%d concurrent permits took %v, expected at least %v", n, elapsed, min)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	l := NewLimiter(0.5) // 2s spacing
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("expected context error while waiting for permit")
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled wait should return promptly")
	}
}

func TestLimiter_DisabledRate(t *testing.T) {
	l := NewLimiter(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("disabled limiter must not block")
	}
}
