// Package retry provides the retry strategies used when establishing and
// re-establishing server connections.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Strategy defines the interface for implementing retry strategies
type Strategy interface {
	// NextDelay returns the delay before the next retry attempt
	// attempt is 0-based (0 for first retry, 1 for second, etc.)
	// Returns the delay duration and whether to continue retrying
	NextDelay(attempt int, lastErr error) (time.Duration, bool)

	// Reset resets the retry strategy state (called on successful connection)
	Reset()
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// InitialDelay is the initial retry delay
	InitialDelay time.Duration

	// MaxDelay is the maximum retry delay
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier
	Multiplier float64

	// MaxRetries is the maximum number of retry attempts (0 for infinite)
	MaxRetries int

	// Jitter adds randomness to the delay to avoid thundering herd
	Jitter bool

	// JitterFactor is the maximum jitter as a fraction of the delay (0.0 to 1.0)
	JitterFactor float64
}

// NewExponentialBackoff creates a new exponential backoff strategy with defaults
func NewExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxRetries:   0, // infinite retries by default
		Jitter:       true,
		JitterFactor: 0.3,
	}
}

// NextDelay implements Strategy
func (r *ExponentialBackoff) NextDelay(attempt int, lastErr error) (time.Duration, bool) {
	// Check if we've exceeded max retries
	if r.MaxRetries > 0 && attempt >= r.MaxRetries {
		return 0, false
	}

	// Calculate exponential delay
	delay := float64(r.InitialDelay) * math.Pow(r.Multiplier, float64(attempt))

	// Cap at max delay
	if delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}

	// Add jitter if enabled
	if r.Jitter && r.JitterFactor > 0 {
		//nolint:gosec // jitter does not need crypto randomness
		jitter := delay * r.JitterFactor * (2*rand.Float64() - 1) // -jitterFactor to +jitterFactor
		delay += jitter
		if delay < 0 {
			delay = float64(r.InitialDelay)
		}
	}

	return time.Duration(delay), true
}

// Reset implements Strategy
func (r *ExponentialBackoff) Reset() {
	// No state to reset for exponential backoff
}

// FixedDelay implements a simple fixed delay retry strategy
type FixedDelay struct {
	// Delay is the fixed delay between retries
	Delay time.Duration

	// MaxRetries is the maximum number of retry attempts (0 for infinite)
	MaxRetries int
}

// NewFixedDelay creates a new fixed delay strategy
func NewFixedDelay(delay time.Duration, maxRetries int) *FixedDelay {
	return &FixedDelay{
		Delay:      delay,
		MaxRetries: maxRetries,
	}
}

// NextDelay implements Strategy
func (r *FixedDelay) NextDelay(attempt int, lastErr error) (time.Duration, bool) {
	if r.MaxRetries > 0 && attempt >= r.MaxRetries {
		return 0, false
	}
	return r.Delay, true
}

// Reset implements Strategy
func (r *FixedDelay) Reset() {
	// No state to reset for fixed delay
}

// Schedule retries with an explicit list of delays, giving up once the
// list is exhausted. Useful where the exact retry timeline matters.
type Schedule []time.Duration

// NextDelay implements Strategy
func (s Schedule) NextDelay(attempt int, lastErr error) (time.Duration, bool) {
	if attempt >= len(s) {
		return 0, false
	}
	return s[attempt], true
}

// Reset implements Strategy
func (s Schedule) Reset() {}

// None never retries: the first failure is final. Equivalent to an empty
// Schedule, spelled out for configs that disable retries on purpose.
type None struct{}

// NextDelay implements Strategy
func (None) NextDelay(attempt int, lastErr error) (time.Duration, bool) {
	return 0, false
}

// Reset implements Strategy
func (None) Reset() {}
