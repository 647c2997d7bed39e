package dispatch

import "time"

// RetryPolicy bounds the delivery attempt loop for one integration.
// Backoff is a fixed delay between attempts, not exponential: uniform,
// predictable waits match the bounded-retry semantics the attempt-count
// guarantees are built on.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// integration sees at most MaxRetries+1 attempts.
	MaxRetries int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
}

// DefaultRetryPolicy returns the policy used when a caller supplies none.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	}
}

// normalize clamps invalid values to safe ones.
func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.RetryDelay < 0 {
		p.RetryDelay = 0
	}
	return p
}
