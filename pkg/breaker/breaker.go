// Package breaker provides a sliding-window circuit breaker for outbound
// calls to the book-metadata service.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// Breaker trips open after more than maxFailures failures within the
// window. While open, calls fail fast with ErrOpen until the cooldown
// elapses; the first call after that probes the upstream.
type Breaker struct {
	maxFailures int
	window      time.Duration
	cooldown    time.Duration

	mu          sync.Mutex
	state       state
	failures    []time.Time
	lastFailure time.Time
}

func New(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		window:      60 * time.Second,
		cooldown:    cooldown,
		state:       stateClosed,
	}
}

// Execute runs fn unless the breaker is open. A failed probe while half-open
// reopens the breaker immediately.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == stateOpen {
		if time.Since(b.lastFailure) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = stateHalfOpen
		b.failures = b.failures[:0]
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if err != nil {
		b.lastFailure = now
		b.failures = append(b.failures, now)
		b.dropExpired(now)
		if len(b.failures) > b.maxFailures || b.state == stateHalfOpen {
			b.state = stateOpen
		}
		return err
	}

	b.dropExpired(now)
	if b.state == stateHalfOpen {
		b.state = stateClosed
		b.failures = b.failures[:0]
	}
	return nil
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateOpen && time.Since(b.lastFailure) < b.cooldown
}

func (b *Breaker) dropExpired(now time.Time) {
	cutoff := now.Add(-b.window)
	kept := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.failures = kept
}
