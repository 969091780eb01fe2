package resilience

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPacer_SpacesSuccessiveCalls(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var waits []time.Duration
	p := NewPacer(time.Second, func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	})
	p.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}

	want := []time.Duration{0, time.Second, 2 * time.Second}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("wait[%d]=%v want=%v", i, waits[i], want[i])
		}
	}
}

func TestPacer_NoWaitAfterIdleGap(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var waits []time.Duration
	p := NewPacer(time.Second, func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	})
	p.now = func() time.Time { return now }

	_ = p.Wait(context.Background())
	now = now.Add(5 * time.Second)
	_ = p.Wait(context.Background())

	if waits[1] != 0 {
		t.Fatalf("expected no wait after idle gap, got %v", waits[1])
	}
}

func TestPacer_ConcurrentWaitersGetDistinctSlots(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	seen := make(map[time.Duration]int)
	p := NewPacer(100*time.Millisecond, func(_ context.Context, d time.Duration) error {
		mu.Lock()
		seen[d]++
		mu.Unlock()
		return nil
	})
	p.now = func() time.Time { return now }

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = p.Wait(context.Background())
		}()
	}
	wg.Wait()

	if len(seen) != workers {
		t.Fatalf("expected %d distinct slots, got %v", workers, seen)
	}
}

func TestPacer_DisabledWhenIntervalZero(t *testing.T) {
	t.Parallel()

	p := NewPacer(0, func(context.Context, time.Duration) error {
		t.Fatalf("sleeper must not be called")
		return nil
	})
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}
