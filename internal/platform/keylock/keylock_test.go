package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestMap_SerializesSameKey(t *testing.T) {
	t.Parallel()

	locks := New()
	counter := 0
	const workers = 64

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := locks.Lock("team-a")
			defer unlock()
			current := counter
			time.Sleep(time.Microsecond)
			counter = current + 1
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("lost updates: counter=%d, want %d", counter, workers)
	}
	if got := locks.Len(); got != 0 {
		t.Fatalf("expected released keys to be forgotten, got %d", got)
	}
}

func TestMap_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	locks := New()
	unlockA := locks.Lock("team-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("team-b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on team-b blocked behind team-a")
	}
}

func TestMap_UnlockIsIdempotent(t *testing.T) {
	locks := New()
	unlock := locks.Lock("k")
	unlock()
	unlock()

	relock := locks.Lock("k")
	relock()
}
