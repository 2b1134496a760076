package worker

import (
	"context"
	"errors"
	"time"

	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/repository"
)

var _ repository.PickupAttemptRepository = (*AttemptWriter)(nil)

// AttemptWriter moves attempt inserts off the confirm path. Save queues a
// copy of the attempt on the pool and writes inline when the queue is full.
type AttemptWriter struct {
	next    repository.PickupAttemptRepository
	pool    *Pool
	timeout time.Duration
}

func NewAttemptWriter(next repository.PickupAttemptRepository, pool *Pool, timeout time.Duration) *AttemptWriter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AttemptWriter{next: next, pool: pool, timeout: timeout}
}

func (w *AttemptWriter) Save(ctx context.Context, tx repository.Tx, a *model.PickupAttempt) error {
	if a == nil {
		return nil
	}
	// Inside a caller transaction the write must stay on that transaction.
	if tx != nil {
		return w.next.Save(ctx, tx, a)
	}
	cp := *a
	err := w.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()
		return w.next.Save(ctx, nil, &cp)
	})
	if errors.Is(err, ErrQueueFull) {
		return w.next.Save(ctx, nil, &cp)
	}
	return err
}

func (w *AttemptWriter) ListByDonation(ctx context.Context, tx repository.Tx, donationID string, limit int) ([]*model.PickupAttempt, error) {
	return w.next.ListByDonation(ctx, tx, donationID, limit)
}
