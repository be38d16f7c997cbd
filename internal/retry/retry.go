package retry

import "time"

const (
	DefaultBase = 500 * time.Millisecond
	DefaultCap  = 5 * time.Second
)

// Policy computes backoff delays for throttled remote calls. A zero
// MaxAttempts means the operation retries indefinitely, which is what the
// background workers want: a sustained outage degrades to capped-delay
// retrying instead of killing the loop.
type Policy struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// Delay returns the backoff for the given attempt (0-based). When the
// server supplied a retry-after hint it takes precedence over Base; either
// way the result doubles per attempt and is clamped to Cap.
func (p Policy) Delay(attempt int, hint time.Duration) time.Duration {
	base := p.Base
	if base <= 0 {
		base = DefaultBase
	}
	if hint > 0 {
		base = hint
	}
	ceiling := p.Cap
	if ceiling <= 0 {
		ceiling = DefaultCap
	}

	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}

// Exhausted reports whether the attempt budget is spent.
func (p Policy) Exhausted(attempt int) bool {
	if p.MaxAttempts <= 0 {
		return false
	}
	return attempt > p.MaxAttempts
}
