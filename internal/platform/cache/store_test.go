package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute, nil)
	var calls atomic.Int32

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := NewStore[int](time.Minute, clock)
	ctx := context.Background()

	store.Set(ctx, "team-a", 7)
	if v, ok := store.Get(ctx, "team-a"); !ok || v != 7 {
		t.Fatalf("expected cached value, got %v %v", v, ok)
	}

	clock.Advance(time.Minute)
	if _, ok := store.Get(ctx, "team-a"); ok {
		t.Fatalf("expected entry to expire")
	}
	if got := store.Len(); got != 0 {
		t.Fatalf("expired entry should be evicted, len=%d", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute, nil)
	var calls atomic.Int32
	loader := func(context.Context) (string, error) {
		calls.Add(1)
		return "", errUnexpectedValue
	}

	for i := 0; i < 2; i++ {
		if _, err := store.GetOrLoad(context.Background(), "k", loader); !errors.Is(err, errUnexpectedValue) {
			t.Fatalf("expected loader error, got %v", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestStore_DeleteInvalidates(t *testing.T) {
	t.Parallel()

	store := NewStore[string](0, nil)
	ctx := context.Background()
	store.Set(ctx, "k", "v")
	store.Delete(ctx, "k")
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatalf("expected deleted key to miss")
	}
}

func TestStore_DeleteDuringLoadSkipsCaching(t *testing.T) {
	t.Parallel()

	store := NewStore[string](0, nil)
	ctx := context.Background()

	value, err := store.GetOrLoad(ctx, "alpha-1", func(context.Context) (string, error) {
		store.Delete(ctx, "alpha-1")
		return "stale", nil
	})
	if err != nil || value != "stale" {
		t.Fatalf("expected loaded value to be returned, got %q %v", value, err)
	}
	if _, ok := store.Get(ctx, "alpha-1"); ok {
		t.Fatalf("load overlapping a delete must not be cached")
	}

	value, err = store.GetOrLoad(ctx, "alpha-1", func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil || value != "fresh" {
		t.Fatalf("expected fresh load, got %q %v", value, err)
	}
	if cached, ok := store.Get(ctx, "alpha-1"); !ok || cached != "fresh" {
		t.Fatalf("expected fresh value cached, got %q %v", cached, ok)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
