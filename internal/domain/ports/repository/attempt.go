package repository

import (
	"context"

	"foodflow-pickup/internal/domain/model"
)

// PickupAttemptRepository is the audit log of confirm attempts.
type PickupAttemptRepository interface {
	Save(ctx context.Context, tx Tx, a *model.PickupAttempt) error
	ListByDonation(ctx context.Context, tx Tx, donationID string, limit int) ([]*model.PickupAttempt, error)
}
