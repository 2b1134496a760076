package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var (
	_ repository.TolerancePolicyRepository = (*TolerancePolicyRepo)(nil)
	_ adapter.TolerancePolicyProvider      = (*TolerancePolicyRepo)(nil)
)

// TolerancePolicyRepo keeps the single policy row of pickup_tolerance_policy.
type TolerancePolicyRepo struct {
	pool *pgxpool.Pool
}

func NewTolerancePolicyRepo(pool *pgxpool.Pool) *TolerancePolicyRepo {
	return &TolerancePolicyRepo{pool: pool}
}

func (r *TolerancePolicyRepo) Get(ctx context.Context, tx repository.Tx) (*model.TolerancePolicy, error) {
	const sql = `
SELECT early_minutes, late_minutes, updated_at
  FROM pickup_tolerance_policy
 WHERE id = 1;
`
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var p model.TolerancePolicy
	if err := exec.QueryRow(ctx, sql).Scan(&p.EarlyToleranceMinutes, &p.LateToleranceMinutes, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: tolerance policy: %v", domain.ErrReadDatabaseRow, err)
	}
	return &p, nil
}

func (r *TolerancePolicyRepo) Save(ctx context.Context, tx repository.Tx, p *model.TolerancePolicy) error {
	const sql = `
INSERT INTO pickup_tolerance_policy (id, early_minutes, late_minutes, updated_at)
VALUES (1, $1, $2, $3)
ON CONFLICT (id) DO UPDATE
  SET early_minutes = EXCLUDED.early_minutes,
      late_minutes  = EXCLUDED.late_minutes,
      updated_at    = EXCLUDED.updated_at;
`
	if p == nil {
		return domain.ErrInvalidArgument
	}
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	if _, err := exec.Exec(ctx, sql, p.EarlyToleranceMinutes, p.LateToleranceMinutes, p.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" { // check_violation
			return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, pgErr.ConstraintName)
		}
		return fmt.Errorf("save tolerance policy: %w", err)
	}
	return nil
}

// GetTolerancePolicy serves the stored row as the policy in force.
func (r *TolerancePolicyRepo) GetTolerancePolicy(ctx context.Context) (*model.TolerancePolicy, error) {
	return r.Get(ctx, repository.NoTX)
}
