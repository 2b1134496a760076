package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/domain/ports/repository"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

type FlowState string

const (
	FlowIdle       FlowState = "idle"
	FlowSubmitting FlowState = "submitting"
	FlowClosed     FlowState = "closed"
)

// FlowCallbacks are the caller's hooks. OnSuccess fires at most once, on a
// successful completion, and always before OnClose. OnClose fires exactly
// once, on cancel or success. Either may be nil.
type FlowCallbacks struct {
	OnClose   func()
	OnSuccess func()
}

// FlowSnapshot is a consistent read of a flow for presentation.
type FlowSnapshot struct {
	State      FlowState
	Digits     []string
	Complete   bool
	LastError  string
	CanConfirm bool
	CanCancel  bool
	TouchedAt  time.Time
}

// Flow is one pickup confirmation attempt: Idle -> Submitting -> Idle on
// failure or Closed on success, and Idle -> Closed on cancel. A Flow is safe
// for concurrent use; the external call runs without holding the lock so a
// second Confirm or a Cancel can observe Submitting and be refused.
type Flow struct {
	mu      sync.Mutex
	state   FlowState
	lastErr string
	touched time.Time

	donation *model.Donation
	entry    *model.CodeEntry
	policy   *model.TolerancePolicy
	loc      *time.Location
	cred     adapter.Credential
	userID   string

	completer adapter.PickupCompleter
	attempts  repository.PickupAttemptRepository
	cb        FlowCallbacks
	now       func() time.Time
	log       *zerolog.Logger
}

func (f *Flow) Donation() *model.Donation      { return f.donation }
func (f *Flow) Policy() *model.TolerancePolicy { return f.policy }

// Window evaluates the pickup window against the current instant. A nil
// status means no timing constraint applies.
func (f *Flow) Window() (*model.WindowStatus, error) {
	var slot *model.PickupSlot
	if f.donation != nil {
		slot = f.donation.ConfirmedPickupSlot
	}
	return model.EvaluateWindow(f.now(), slot, f.policy, f.loc)
}

func (f *Flow) SetDigit(index int, raw string) (model.FocusIntent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FlowClosed {
		return model.NoFocusChange, false
	}
	f.touched = f.now()
	return f.entry.SetDigit(index, raw)
}

func (f *Flow) Backspace(index int) model.FocusIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FlowClosed {
		return model.NoFocusChange
	}
	f.touched = f.now()
	return f.entry.Backspace(index)
}

func (f *Flow) Paste(startIndex int, raw string) model.FocusIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FlowClosed {
		return model.NoFocusChange
	}
	f.touched = f.now()
	return f.entry.Paste(startIndex, raw)
}

func (f *Flow) Snapshot() FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FlowSnapshot{
		State:      f.state,
		Digits:     f.entry.Digits(),
		Complete:   f.entry.IsComplete(),
		LastError:  f.lastErr,
		CanConfirm: f.state == FlowIdle,
		CanCancel:  f.state == FlowIdle,
		TouchedAt:  f.touched,
	}
}

func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Activity returns the last time the flow was used together with its state.
func (f *Flow) Activity() (time.Time, FlowState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched, f.state
}

func (f *Flow) CanConfirm() bool { return f.State() == FlowIdle }
func (f *Flow) CanCancel() bool  { return f.State() == FlowIdle }

func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Submit confirms with the flow's own donation and code entry and a window
// evaluated now. It returns the window status the decision was made on. A
// slot that cannot be parsed is reported as an invalid donation.
func (f *Flow) Submit(ctx context.Context) (*model.WindowStatus, error) {
	status, err := f.Window()
	return status, f.confirm(ctx, f.donation, f.entry, status, err)
}

// Confirm runs one submission. Incomplete code, missing donation and a
// closed window fail before any external call. While the external call is
// outstanding further calls return ErrSubmissionInProgress and change
// nothing. Failures leave the flow Idle so the user can retry.
func (f *Flow) Confirm(ctx context.Context, donation *model.Donation, entry *model.CodeEntry, status *model.WindowStatus) error {
	return f.confirm(ctx, donation, entry, status, nil)
}

func (f *Flow) confirm(ctx context.Context, donation *model.Donation, entry *model.CodeEntry, status *model.WindowStatus, windowErr error) error {
	f.mu.Lock()
	switch f.state {
	case FlowSubmitting:
		f.mu.Unlock()
		return domain.ErrSubmissionInProgress
	case FlowClosed:
		f.mu.Unlock()
		return domain.ErrFlowClosed
	}
	f.touched = f.now()
	f.lastErr = ""

	var precheck error
	switch {
	case entry == nil || !entry.IsComplete():
		precheck = domain.ErrIncompleteCode
	case donation.IsZero():
		precheck = domain.ErrInvalidDonation
	case windowErr != nil:
		precheck = fmt.Errorf("%w: %v", domain.ErrInvalidDonation, windowErr)
	case status != nil && status.Status.Blocks():
		precheck = &domain.WindowClosedError{Status: string(status.Status), Reason: status.Message}
	}
	if precheck != nil {
		f.lastErr = model.OutcomeFromError(precheck).Reason
		f.mu.Unlock()
		f.record(ctx, donation, status, precheck)
		return precheck
	}

	code := entry.FullCode()
	f.state = FlowSubmitting
	f.mu.Unlock()

	// Once issued the call runs to completion. Only the caller's values are
	// kept; its deadline and cancellation are dropped.
	ctx = context.WithoutCancel(ctx)
	err := f.completer.CompletePickup(ctx, f.cred, donation.ID, code)
	if err != nil {
		var vf *domain.VerificationFailedError
		if !errors.As(err, &vf) {
			err = &domain.VerificationFailedError{Err: err}
		}
		f.mu.Lock()
		f.state = FlowIdle
		f.lastErr = model.OutcomeFromError(err).Reason
		f.touched = f.now()
		f.mu.Unlock()
		f.log.Warn().Err(err).Str("donation_id", donation.ID).Msg("complete pickup failed")
		f.record(ctx, donation, status, err)
		return err
	}

	f.mu.Lock()
	f.state = FlowClosed
	f.mu.Unlock()
	f.log.Info().Str("donation_id", donation.ID).Msg("pickup confirmed")
	f.record(ctx, donation, status, nil)

	if f.cb.OnSuccess != nil {
		f.cb.OnSuccess()
	}
	if f.cb.OnClose != nil {
		f.cb.OnClose()
	}
	return nil
}

// Cancel closes an idle flow, discards the entered code and fires OnClose.
// It is refused while a submission is outstanding.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	switch f.state {
	case FlowSubmitting:
		f.mu.Unlock()
		return domain.ErrSubmissionInProgress
	case FlowClosed:
		f.mu.Unlock()
		return domain.ErrFlowClosed
	}
	f.state = FlowClosed
	f.entry.Reset()
	f.mu.Unlock()

	if f.cb.OnClose != nil {
		f.cb.OnClose()
	}
	return nil
}

func (f *Flow) record(ctx context.Context, donation *model.Donation, status *model.WindowStatus, err error) {
	if f.attempts == nil {
		return
	}
	out := model.OutcomeFromError(err)
	a := &model.PickupAttempt{
		ID:        ulid.Make().String(),
		UserID:    f.userID,
		Outcome:   out.Kind,
		Reason:    out.Reason,
		CreatedAt: f.now(),
	}
	if donation != nil {
		a.DonationID = donation.ID
	}
	if status != nil {
		a.WindowStatus = string(status.Status)
	}
	if saveErr := f.attempts.Save(ctx, repository.NoTX, a); saveErr != nil {
		f.log.Error().Err(saveErr).Msg("failed to record pickup attempt")
	}
}
