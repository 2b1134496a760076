package usecase

import (
	"context"
	"fmt"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/domain/ports/repository"
	"foodflow-pickup/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

var _ ToleranceUseCase = (*toleranceUC)(nil)

type ToleranceUseCase interface {
	Current(ctx context.Context) (*model.TolerancePolicy, error)
	Update(ctx context.Context, earlyMinutes, lateMinutes int) (*model.TolerancePolicy, error)
}

// CacheInvalidator drops a cached tolerance policy after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type toleranceUC struct {
	provider adapter.TolerancePolicyProvider
	repo     repository.TolerancePolicyRepository
	tm       repository.TransactionManager
	cache    CacheInvalidator
	log      *zerolog.Logger
}

// NewToleranceUseCase reads through provider. repo and tm are nil when the
// policy is owned by the FoodFlow backend, which makes Update unavailable.
func NewToleranceUseCase(
	provider adapter.TolerancePolicyProvider,
	repo repository.TolerancePolicyRepository,
	tm repository.TransactionManager,
	cache CacheInvalidator,
	logger *zerolog.Logger,
) *toleranceUC {
	return &toleranceUC{provider: provider, repo: repo, tm: tm, cache: cache, log: logger}
}

func (u *toleranceUC) Current(ctx context.Context) (*model.TolerancePolicy, error) {
	defer logging.TraceDuration(u.log, "ToleranceUC.Current")()
	return u.provider.GetTolerancePolicy(ctx)
}

func (u *toleranceUC) Update(ctx context.Context, earlyMinutes, lateMinutes int) (*model.TolerancePolicy, error) {
	defer logging.TraceDuration(u.log, "ToleranceUC.Update")()

	if u.repo == nil || u.tm == nil {
		return nil, fmt.Errorf("%w: tolerance policy is read-only for this source", domain.ErrInvalidArgument)
	}
	p, err := model.NewTolerancePolicy(earlyMinutes, lateMinutes)
	if err != nil {
		return nil, err
	}
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		return u.repo.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("save tolerance policy: %w", err)
	}
	if u.cache != nil {
		if err := u.cache.Invalidate(ctx); err != nil {
			u.log.Warn().Err(err).Msg("failed to invalidate tolerance cache")
		}
	}
	u.log.Info().Int("early_minutes", earlyMinutes).Int("late_minutes", lateMinutes).Msg("tolerance policy updated")
	return p, nil
}
