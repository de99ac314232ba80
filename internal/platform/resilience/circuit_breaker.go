package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}

// CircuitBreaker guards an outbound dependency. Every state change starts a
// new generation; outcomes reported for an older generation are dropped, so a
// slow request admitted while closed cannot reopen a breaker that has since
// recovered.
type CircuitBreaker struct {
	cfg   CircuitBreakerConfig
	clock clockwork.Clock

	mu         sync.Mutex
	state      CircuitState
	generation uint64
	failures   int
	openedAt   time.Time
	probes     int
	successes  int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig, clock clockwork.Clock) *CircuitBreaker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CircuitBreaker{
		cfg:   NormalizeCircuitBreakerConfig(cfg),
		clock: clock,
		state: CircuitStateClosed,
	}
}

// Execute runs fn when the breaker admits it and records the outcome.
// Errors for which countable returns false count as successes.
func (b *CircuitBreaker) Execute(fn func() error, countable func(error) bool) error {
	generation, err := b.admit()
	if err != nil {
		return err
	}

	err = fn()
	failed := err != nil && (countable == nil || countable(err))
	b.record(generation, failed)
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advanceLocked()
	return b.state
}

func (b *CircuitBreaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advanceLocked()
	switch b.state {
	case CircuitStateOpen:
		return 0, ErrCircuitOpen
	case CircuitStateHalfOpen:
		if b.probes >= b.cfg.HalfOpenMaxReq {
			return 0, ErrCircuitOpen
		}
		b.probes++
	}
	return b.generation, nil
}

func (b *CircuitBreaker) record(generation uint64, failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if generation != b.generation {
		return
	}

	switch b.state {
	case CircuitStateClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transitionLocked(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		if failed {
			b.transitionLocked(CircuitStateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxReq {
			b.transitionLocked(CircuitStateClosed)
		}
	}
}

// advanceLocked moves an open breaker to half-open once the open timeout has elapsed.
func (b *CircuitBreaker) advanceLocked() {
	if b.state == CircuitStateOpen && b.clock.Since(b.openedAt) >= b.cfg.OpenTimeout {
		b.transitionLocked(CircuitStateHalfOpen)
	}
}

func (b *CircuitBreaker) transitionLocked(state CircuitState) {
	b.state = state
	b.generation++
	b.failures = 0
	b.probes = 0
	b.successes = 0
	if state == CircuitStateOpen {
		b.openedAt = b.clock.Now()
	}
}
