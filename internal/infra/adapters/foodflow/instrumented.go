package foodflow

import (
	"context"
	"time"

	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/infra/metrics"
)

var _ adapter.PickupCompleter = (*InstrumentedCompleter)(nil)

// InstrumentedCompleter times every complete-pickup call.
type InstrumentedCompleter struct {
	next adapter.PickupCompleter
}

func NewInstrumentedCompleter(next adapter.PickupCompleter) *InstrumentedCompleter {
	return &InstrumentedCompleter{next: next}
}

func (c *InstrumentedCompleter) CompletePickup(ctx context.Context, cred adapter.Credential, donationID, code string) error {
	start := time.Now()
	err := c.next.CompletePickup(ctx, cred, donationID, code)
	metrics.ObserveCompletePickup(time.Since(start), err == nil)
	return err
}
