package resilience

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces successive calls to Wait at least interval apart. It is safe
// for concurrent use; waiters are served one slot at a time so the aggregate
// rate holds regardless of how many goroutines share it.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	now      func() time.Time
	sleep    Sleeper
}

func NewPacer(interval time.Duration, sleep Sleeper) *Pacer {
	if sleep == nil {
		sleep = SleepContext
	}
	return &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleep,
	}
}

// Wait reserves the next slot and blocks until it arrives. The first call
// never blocks.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := p.now()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)
	p.mu.Unlock()

	return p.sleep(ctx, slot.Sub(now))
}
