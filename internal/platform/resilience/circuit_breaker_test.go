package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var errUpstream = errors.New("upstream down")

func failing() error    { return errUpstream }
func succeeding() error { return nil }

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC))
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   1,
	}, clock)

	_ = b.Execute(failing, nil)
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	_ = b.Execute(failing, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	called := false
	err := b.Execute(func() error { called = true; return nil }, nil)
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected open breaker to reject without calling, err=%v called=%v", err, called)
	}

	clock.Advance(6 * time.Second)
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}
	if err := b.Execute(succeeding, nil); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second}, clock)

	_ = b.Execute(failing, nil)
	clock.Advance(2 * time.Second)
	_ = b.Execute(failing, nil)

	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failed probe, got %s", state)
	}
}

func TestCircuitBreaker_LimitsHalfOpenProbes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenMaxReq: 1}, clock)

	_ = b.Execute(failing, nil)
	clock.Advance(2 * time.Second)

	err := b.Execute(func() error {
		if inner := b.Execute(succeeding, nil); !errors.Is(inner, ErrCircuitOpen) {
			t.Errorf("expected second probe to be rejected, got %v", inner)
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestCircuitBreaker_IgnoresStaleOutcomes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second}, clock)

	// The slow call is admitted while closed and only fails after another
	// call has tripped the breaker and a probe has closed it again.
	err := b.Execute(func() error {
		_ = b.Execute(failing, nil)
		clock.Advance(2 * time.Second)
		_ = b.Execute(succeeding, nil)
		return errUpstream
	}, nil)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("stale failure must not reopen the breaker, got %s", state)
	}
}

func TestCircuitBreaker_ExecuteIgnoresUncountedErrors(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1}, clockwork.NewFakeClock())
	errBadRequest := errors.New("bad request")
	countable := func(err error) bool { return errors.Is(err, errUpstream) }

	if err := b.Execute(func() error { return errBadRequest }, countable); !errors.Is(err, errBadRequest) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("uncounted error must not open the breaker, got %s", state)
	}

	_ = b.Execute(failing, countable)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after counted failure, got %s", state)
	}
}

func TestNormalizeCircuitBreakerConfig(t *testing.T) {
	got := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{Enabled: true})
	want := DefaultCircuitBreakerConfig()
	if got.FailureThreshold != want.FailureThreshold || got.OpenTimeout != want.OpenTimeout || got.HalfOpenMaxReq != want.HalfOpenMaxReq {
		t.Fatalf("unexpected normalized config: %+v", got)
	}
	if !got.Enabled {
		t.Fatalf("normalize must keep Enabled")
	}
}
