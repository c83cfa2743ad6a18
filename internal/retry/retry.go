// Package retry implements the shared backoff policy for every external
// service call: bounded attempts with exponential backoff and jitter. After
// exhausting its attempts a call returns a sentinel failure instead of an
// error escaping the boundary; the terminal error is logged with context.
package retry

import (
	"math"
	"math/rand"
	"time"

	"newsdive/internal/logger"
)

// DefaultMaxAttempts is the number of times a failing call is tried before
// giving up.
const DefaultMaxAttempts = 3

// Policy controls retry behavior. Sleep and Jitter are injectable so tests
// run without real delays.
type Policy struct {
	MaxAttempts int
	Sleep       func(time.Duration)
	Jitter      func() float64 // uniform in [0,1)
}

// DefaultPolicy returns the production policy: 3 attempts, real sleeps,
// uniform jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Sleep:       time.Sleep,
		Jitter:      rand.Float64,
	}
}

// WithAttempts returns a copy of the policy with MaxAttempts replaced.
func (p Policy) WithAttempts(n int) Policy {
	if n > 0 {
		p.MaxAttempts = n
	}
	return p
}

// backoff computes the delay before the next attempt: 2^attempt seconds plus
// up to one second of jitter.
func (p Policy) backoff(attempt int) time.Duration {
	seconds := math.Pow(2, float64(attempt)) + p.Jitter()
	return time.Duration(seconds * float64(time.Second))
}

// Do runs fn up to p.MaxAttempts times, sleeping between attempts. On success
// it returns the value and true. When every attempt fails it logs the terminal
// error under label and returns the zero value and false.
func Do[T any](p Policy, label string, fn func() (T, error)) (T, bool) {
	var zero T
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		value, err := fn()
		if err == nil {
			return value, true
		}
		lastErr = err

		if attempt+1 < p.MaxAttempts {
			wait := p.backoff(attempt + 1)
			logger.Warn("External call failed, retrying",
				"call", label, "attempt", attempt+1, "wait", wait.String(), "error", err.Error())
			p.Sleep(wait)
		}
	}

	logger.Error("External call failed after all attempts", lastErr,
		"call", label, "attempts", p.MaxAttempts)
	return zero, false
}
