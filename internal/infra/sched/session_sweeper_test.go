//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"foodflow-pickup/internal/infra/logging"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	swept   chan struct{}
	n       int
}

func (f *fakeStore) SweepIdle(cutoff time.Time) int {
	f.mu.Lock()
	f.cutoffs = append(f.cutoffs, cutoff)
	f.mu.Unlock()
	select {
	case f.swept <- struct{}{}:
	default:
	}
	return f.n
}

func (f *fakeStore) Len() int { return 1 }

func TestSessionSweeper_SweepOnce(t *testing.T) {
	store := &fakeStore{n: 2, swept: make(chan struct{}, 1)}
	w := NewSessionSweeper(time.Minute, 15*time.Minute, store, logging.Nop())
	now := time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if n := w.sweepOnce(); n != 2 {
		t.Fatalf("expected 2, but got %d", n)
	}
	if want := now.Add(-15 * time.Minute); !store.cutoffs[0].Equal(want) {
		t.Errorf("expected cutoff %v, but got %v", want, store.cutoffs[0])
	}
}

func TestSessionSweeper_RunStopsOnCancel(t *testing.T) {
	store := &fakeStore{swept: make(chan struct{}, 1)}
	w := NewSessionSweeper(5*time.Millisecond, time.Minute, store, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-store.swept:
	case <-time.After(2 * time.Second):
		t.Fatal("expected at least one sweep")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, but got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
