package postgres

import (
	"context"
	"errors"
	"fmt"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.PickupAttemptRepository = (*PickupAttemptRepo)(nil)

type PickupAttemptRepo struct {
	pool *pgxpool.Pool
}

func NewPickupAttemptRepo(pool *pgxpool.Pool) *PickupAttemptRepo {
	return &PickupAttemptRepo{pool: pool}
}

func (r *PickupAttemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.PickupAttempt) error {
	const sql = `
INSERT INTO pickup_attempts (id, donation_id, user_id, outcome, reason, window_status, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7);
`
	if a == nil || a.ID == "" {
		return domain.ErrInvalidArgument
	}
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = exec.Exec(ctx, sql,
		a.ID, a.DonationID, a.UserID, string(a.Outcome), a.Reason, a.WindowStatus, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: duplicate attempt %s", domain.ErrInvalidArgument, a.ID)
		}
		return fmt.Errorf("save pickup attempt: %w", err)
	}
	return nil
}

// ListByDonation returns the newest attempts first. limit <= 0 means no cap.
func (r *PickupAttemptRepo) ListByDonation(ctx context.Context, tx repository.Tx, donationID string, limit int) ([]*model.PickupAttempt, error) {
	const sql = `
SELECT id, donation_id, user_id, outcome, reason, COALESCE(window_status, ''), created_at
  FROM pickup_attempts
 WHERE donation_id = $1
 ORDER BY created_at DESC, id DESC
 LIMIT NULLIF($2, 0);
`
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	rows, err := exec.Query(ctx, sql, donationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pickup attempts: %w", err)
	}
	defer rows.Close()

	var out []*model.PickupAttempt
	for rows.Next() {
		var a model.PickupAttempt
		var outcome string
		if err := rows.Scan(&a.ID, &a.DonationID, &a.UserID, &outcome, &a.Reason, &a.WindowStatus, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: pickup attempt: %v", domain.ErrReadDatabaseRow, err)
		}
		a.Outcome = model.OutcomeKind(outcome)
		out = append(out, &a)
	}
	return out, rows.Err()
}
