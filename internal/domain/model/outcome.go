package model

import (
	"errors"
	"time"

	"foodflow-pickup/internal/domain"
)

// GenericVerificationFailure is shown when the complete-pickup operation
// fails without a message of its own.
const GenericVerificationFailure = "Verification failed. Please check the code and try again."

type OutcomeKind string

const (
	OutcomeSuccess            OutcomeKind = "success"
	OutcomeIncompleteCode     OutcomeKind = "incomplete_code"
	OutcomeInvalidDonation    OutcomeKind = "invalid_donation"
	OutcomeWindowClosed       OutcomeKind = "window_closed"
	OutcomeVerificationFailed OutcomeKind = "verification_failed"
)

// SubmissionOutcome is the terminal result of one confirm attempt.
type SubmissionOutcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

func (o SubmissionOutcome) OK() bool { return o.Kind == OutcomeSuccess }

// OutcomeFromError maps a confirm result onto the outcome taxonomy. A nil
// error is a success; anything unrecognised counts as a verification failure.
func OutcomeFromError(err error) SubmissionOutcome {
	if err == nil {
		return SubmissionOutcome{Kind: OutcomeSuccess}
	}
	var wc *domain.WindowClosedError
	var vf *domain.VerificationFailedError
	switch {
	case errors.Is(err, domain.ErrIncompleteCode):
		return SubmissionOutcome{Kind: OutcomeIncompleteCode, Reason: "Please enter the full 6-digit code."}
	case errors.Is(err, domain.ErrInvalidDonation):
		return SubmissionOutcome{Kind: OutcomeInvalidDonation, Reason: "This donation cannot be confirmed."}
	case errors.As(err, &wc):
		return SubmissionOutcome{Kind: OutcomeWindowClosed, Reason: wc.Reason}
	case errors.As(err, &vf) && vf.Reason != "":
		return SubmissionOutcome{Kind: OutcomeVerificationFailed, Reason: vf.Reason}
	default:
		return SubmissionOutcome{Kind: OutcomeVerificationFailed, Reason: GenericVerificationFailure}
	}
}

// PickupAttempt is the audit record of one finished confirm attempt.
type PickupAttempt struct {
	ID           string
	DonationID   string
	UserID       string
	Outcome      OutcomeKind
	Reason       string
	WindowStatus string
	CreatedAt    time.Time
}
