//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/repository"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingRepo struct {
	mu    sync.Mutex
	saved []*model.PickupAttempt
	txs   []repository.Tx
}

func (r *recordingRepo) Save(_ context.Context, tx repository.Tx, a *model.PickupAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, a)
	r.txs = append(r.txs, tx)
	return nil
}

func (r *recordingRepo) ListByDonation(_ context.Context, _ repository.Tx, donationID string, _ int) ([]*model.PickupAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PickupAttempt
	for _, a := range r.saved {
		if a.DonationID == donationID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *recordingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func TestPool_RunsAndDrainsOnStop(t *testing.T) {
	logger := zerolog.Nop()
	p := NewPool(2, &logger)
	p.Start(context.Background())

	var ran int32
	for i := 0; i < 6; i++ {
		if err := p.Submit(func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	p.Stop()
	if got := atomic.LoadInt32(&ran); got != 6 {
		t.Fatalf("want 6, got %d", got)
	}
	// second Stop is a no-op
	p.Stop()
}

func TestPool_SubmitRejectsNilAndFull(t *testing.T) {
	logger := zerolog.Nop()
	p := NewPool(1, &logger) // not started: queue holds 4

	if err := p.Submit(nil); err == nil {
		t.Fatal("expected error for nil task")
	}
	for i := 0; i < 4; i++ {
		if err := p.Submit(func(context.Context) error { return nil }); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, but got %v", err)
	}
}

func TestAttemptWriter(t *testing.T) {
	t.Run("should write asynchronously and copy the attempt", func(t *testing.T) {
		logger := zerolog.Nop()
		p := NewPool(1, &logger)
		p.Start(context.Background())
		repo := &recordingRepo{}
		w := NewAttemptWriter(repo, p, time.Second)

		a := &model.PickupAttempt{ID: "a1", DonationID: "d1", Outcome: model.OutcomeSuccess}
		if err := w.Save(context.Background(), repository.NoTX, a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		a.DonationID = "mutated"
		p.Stop()

		got, _ := w.ListByDonation(context.Background(), nil, "d1", 0)
		if len(got) != 1 || got[0].ID != "a1" {
			t.Fatalf("expected attempt a1 for d1, but got %+v", got)
		}
	})

	t.Run("should write inline when the queue is full", func(t *testing.T) {
		logger := zerolog.Nop()
		p := NewPool(1, &logger) // never started
		for i := 0; i < 4; i++ {
			_ = p.Submit(func(context.Context) error { return nil })
		}
		repo := &recordingRepo{}
		w := NewAttemptWriter(repo, p, time.Second)

		if err := w.Save(context.Background(), nil, &model.PickupAttempt{ID: "a2", DonationID: "d2"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.count() != 1 {
			t.Fatalf("want 1, got %d", repo.count())
		}
	})

	t.Run("should stay on the caller transaction", func(t *testing.T) {
		logger := zerolog.Nop()
		p := NewPool(1, &logger)
		repo := &recordingRepo{}
		w := NewAttemptWriter(repo, p, time.Second)

		tx := struct{ name string }{"tx"}
		if err := w.Save(context.Background(), tx, &model.PickupAttempt{ID: "a3"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.count() != 1 || repo.txs[0] != tx {
			t.Fatalf("expected inline save on tx, but got %+v", repo.txs)
		}
	})
}
