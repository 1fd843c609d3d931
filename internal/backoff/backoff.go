// Package backoff computes retry delays for failed iterations.
package backoff

import (
	"time"

	expbackoff "github.com/cenkalti/backoff/v4"
)

// Policy holds the three retry-delay configuration values. It is never
// mutated; Delay is a pure function over (attempt, policy).
type Policy struct {
	InitialDelay time.Duration
	Multiplier   float64
	Ceiling      time.Duration
}

// DefaultPolicy matches the shipped setting.json defaults.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 5 * time.Second,
		Multiplier:   2.0,
		Ceiling:      5 * time.Minute,
	}
}

// Delay returns the delay before retry number attempt (1-based).
// attempt=1 yields exactly the initial delay; subsequent attempts grow by
// the multiplier up to the ceiling, after which the delay is constant.
func Delay(attempt int, p Policy) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	b := &expbackoff.ExponentialBackOff{
		InitialInterval:     p.InitialDelay,
		RandomizationFactor: 0, // deterministic: delays must be reproducible
		Multiplier:          p.Multiplier,
		MaxInterval:         p.Ceiling,
		MaxElapsedTime:      0,
		Stop:                expbackoff.Stop,
		Clock:               expbackoff.SystemClock,
	}
	b.Reset()

	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}

	if p.Ceiling > 0 && d > p.Ceiling {
		d = p.Ceiling
	}
	if d < 0 {
		d = 0
	}
	return d
}
