package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidSlot     = errors.New("invalid pickup slot")

	// Confirmation flow errors
	ErrIncompleteCode       = errors.New("pickup code is incomplete")
	ErrInvalidDonation      = errors.New("invalid donation")
	ErrSubmissionInProgress = errors.New("confirmation already in progress")
	ErrFlowClosed           = errors.New("confirmation flow is closed")
	ErrFlowNotOpen          = errors.New("confirmation flow is not open")
	ErrRateLimited          = errors.New("too many confirmation attempts")
	ErrConfirmationLocked   = errors.New("donation is being confirmed elsewhere")

	// Caller errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Storage errors
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
)

// WindowClosedError is returned when a confirmation is attempted outside the
// tolerance-extended pickup window.
type WindowClosedError struct {
	Status string
	Reason string
}

func (e *WindowClosedError) Error() string {
	return fmt.Sprintf("confirmation window closed (%s): %s", e.Status, e.Reason)
}

// VerificationFailedError carries the failure reported by the complete-pickup
// operation. Reason is the upstream message, empty when none was given.
type VerificationFailedError struct {
	Reason string
	Err    error
}

func (e *VerificationFailedError) Error() string {
	if e.Reason != "" {
		return "verification failed: " + e.Reason
	}
	if e.Err != nil {
		return "verification failed: " + e.Err.Error()
	}
	return "verification failed"
}

func (e *VerificationFailedError) Unwrap() error { return e.Err }
