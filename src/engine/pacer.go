package engine

import (
	"context"
	"sync"
	"time"
)

// Pacer suspends a replay between emissions.
type Pacer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// -----------------------------------------------------------------------------

// TimerPacer waits on the wall clock.
type TimerPacer struct{}

func (TimerPacer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// -----------------------------------------------------------------------------

// RecordingPacer returns immediately and remembers every requested wait. Used for headless
// fast-forward runs and tests.
type RecordingPacer struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (p *RecordingPacer) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.waits = append(p.waits, d)
	p.mu.Unlock()
	return nil
}

// Waits returns the recorded durations in call order.
func (p *RecordingPacer) Waits() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]time.Duration, len(p.waits))
	copy(out, p.waits)
	return out
}

// Total is the sum of every recorded wait.
func (p *RecordingPacer) Total() time.Duration {
	var total time.Duration
	for _, d := range p.Waits() {
		total += d
	}
	return total
}

func (p *RecordingPacer) Reset() {
	p.mu.Lock()
	p.waits = nil
	p.mu.Unlock()
}
