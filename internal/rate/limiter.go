// Package rate paces outbound batch calls so we respect Gmail rate limits.
package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter gates successive batch requests.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Pacer enforces a minimum wall-clock spacing between successive waits. The
// first call passes immediately; a later call arriving before the interval
// has elapsed sleeps for the remainder. This is a throttle, not a scheduler:
// callers are expected to invoke Wait sequentially.
type Pacer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPacer returns a pacer with the given minimum interval between waits.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until at least the configured interval has passed since the
// previous Wait returned a start slot, or the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	now := p.now()
	if !p.last.IsZero() {
		if remaining := p.interval - now.Sub(p.last); remaining > 0 {
			if err := p.sleep(ctx, remaining); err != nil {
				return fmt.Errorf("rate wait canceled: %w", err)
			}
			now = p.now()
		}
	}
	p.last = now
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// None is a limiter that never waits.
type None struct{}

func (None) Wait(ctx context.Context) error {
	_ = ctx
	return nil
}

var (
	_ Limiter = (*Pacer)(nil)
	_ Limiter = None{}
)
