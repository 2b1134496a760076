package repository

import (
	"context"

	"foodflow-pickup/internal/domain/model"
)

// TolerancePolicyRepository stores the single active tolerance policy.
type TolerancePolicyRepository interface {
	// Get returns domain.ErrNotFound when no policy has been stored yet.
	Get(ctx context.Context, tx Tx) (*model.TolerancePolicy, error)
	Save(ctx context.Context, tx Tx, p *model.TolerancePolicy) error
}
