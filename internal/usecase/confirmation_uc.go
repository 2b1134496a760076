package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/domain/ports/repository"
	"foodflow-pickup/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ConfirmationUseCase = (*confirmationUC)(nil)

// FlowActivation is what a caller supplies to open a confirmation flow.
type FlowActivation struct {
	Donation   *model.Donation
	IsOpen     bool
	Credential adapter.Credential
	UserID     string
}

// ConfirmationUseCase activates pickup confirmation flows and reads back
// the attempts they recorded.
type ConfirmationUseCase interface {
	Open(ctx context.Context, act FlowActivation, cb FlowCallbacks) (*Flow, error)
	History(ctx context.Context, donationID string, limit int) ([]*model.PickupAttempt, error)
}

type confirmationUC struct {
	policies  adapter.TolerancePolicyProvider
	completer adapter.PickupCompleter
	attempts  repository.PickupAttemptRepository
	fallback  *model.TolerancePolicy
	loc       *time.Location
	now       func() time.Time
	log       *zerolog.Logger
}

// NewConfirmationUseCase wires the flow factory. attempts and fallback may
// be nil; a nil clock means time.Now and a nil loc means time.Local.
func NewConfirmationUseCase(
	policies adapter.TolerancePolicyProvider,
	completer adapter.PickupCompleter,
	attempts repository.PickupAttemptRepository,
	fallback *model.TolerancePolicy,
	loc *time.Location,
	clock func() time.Time,
	logger *zerolog.Logger,
) *confirmationUC {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &confirmationUC{
		policies:  policies,
		completer: completer,
		attempts:  attempts,
		fallback:  fallback,
		loc:       loc,
		now:       clock,
		log:       logger,
	}
}

// Open snapshots the tolerance policy and returns a fresh Idle flow with an
// empty code entry. The policy is only fetched when the donation has a
// confirmed slot; if the provider fails the configured fallback is used.
func (u *confirmationUC) Open(ctx context.Context, act FlowActivation, cb FlowCallbacks) (*Flow, error) {
	defer logging.TraceDuration(u.log, "ConfirmationUC.Open")()

	if !act.IsOpen {
		return nil, domain.ErrFlowNotOpen
	}
	if act.Donation == nil {
		return nil, domain.ErrInvalidDonation
	}

	var policy *model.TolerancePolicy
	if act.Donation.ConfirmedPickupSlot != nil {
		p, err := u.policies.GetTolerancePolicy(ctx)
		if err != nil {
			l := logging.With(ctx, u.log)
			l.Warn().Err(err).Msg("tolerance policy unavailable; using fallback")
			p = u.fallback
		}
		if p != nil {
			cp := *p
			policy = &cp
		}
	}

	donation := *act.Donation
	if donation.ConfirmedPickupSlot != nil {
		slot := *donation.ConfirmedPickupSlot
		donation.ConfirmedPickupSlot = &slot
	}

	flowLog := logging.With(ctx, u.log).With().Str("component", "ConfirmationFlow").Logger()
	return &Flow{
		state:     FlowIdle,
		touched:   u.now(),
		donation:  &donation,
		entry:     model.NewCodeEntry(),
		policy:    policy,
		loc:       u.loc,
		cred:      act.Credential,
		userID:    act.UserID,
		completer: u.completer,
		attempts:  u.attempts,
		cb:        cb,
		now:       u.now,
		log:       &flowLog,
	}, nil
}

// History lists the newest attempts recorded for donationID. It returns
// domain.ErrNotFound when no attempt log is configured.
func (u *confirmationUC) History(ctx context.Context, donationID string, limit int) ([]*model.PickupAttempt, error) {
	defer logging.TraceDuration(u.log, "ConfirmationUC.History")()

	if strings.TrimSpace(donationID) == "" {
		return nil, fmt.Errorf("%w: donation id is required", domain.ErrInvalidArgument)
	}
	if u.attempts == nil {
		return nil, fmt.Errorf("%w: attempt log is not configured", domain.ErrNotFound)
	}
	out, err := u.attempts.ListByDonation(ctx, repository.NoTX, donationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pickup attempts: %w", err)
	}
	return out, nil
}
