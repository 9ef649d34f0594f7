package advisory

import (
	"context"
	"math"
	"time"
)

const (
	// MinBackoff is the shortest wait between two model calls.
	MinBackoff = 100 * time.Millisecond
	// MaxParseAttempts caps regenerations after unparseable output.
	MaxParseAttempts = 2
)

// RetryPolicy bounds how often a run may call the model.
// The zero value means a single call.
type RetryPolicy struct {
	// MaxAttempts is the number of calls allowed for transient failures.
	MaxAttempts int
	// ParseAttempts is the number of extra calls after a parse failure.
	ParseAttempts int
	Backoff       time.Duration
	MaxBackoff    time.Duration
	Multiplier    float64
}

func NoRetry() RetryPolicy { return RetryPolicy{MaxAttempts: 1} }

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.ParseAttempts < 0 {
		p.ParseAttempts = 0
	}
	if p.ParseAttempts > MaxParseAttempts {
		p.ParseAttempts = MaxParseAttempts
	}
	if p.Backoff < MinBackoff {
		p.Backoff = MinBackoff
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = 10 * p.Backoff
	}
	return p
}

// Delay is the wait before retry number n (1-based).
func (p RetryPolicy) Delay(n int) time.Duration {
	p = p.normalized()
	if n < 1 {
		n = 1
	}
	d := float64(p.Backoff) * math.Pow(p.Multiplier, float64(n-1))
	if d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
