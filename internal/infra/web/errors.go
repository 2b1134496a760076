package web

import (
	"errors"
	"net/http"

	"foodflow-pickup/internal/domain"
)

// statusFor is the single place domain errors become HTTP status codes.
func statusFor(err error) int {
	var wc *domain.WindowClosedError
	var vf *domain.VerificationFailedError
	var ve validationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, domain.ErrIncompleteCode),
		errors.Is(err, domain.ErrInvalidDonation),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidSlot):
		return http.StatusBadRequest
	case errors.As(err, &wc), errors.As(err, &vf):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSubmissionInProgress),
		errors.Is(err, domain.ErrConfirmationLocked),
		errors.Is(err, domain.ErrFlowClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	var wc *domain.WindowClosedError
	var vf *domain.VerificationFailedError
	var ve validationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return "validation_failed"
	case errors.Is(err, domain.ErrIncompleteCode):
		return "incomplete_code"
	case errors.Is(err, domain.ErrInvalidDonation), errors.Is(err, domain.ErrInvalidSlot):
		return "invalid_donation"
	case errors.As(err, &wc):
		return "window_closed"
	case errors.As(err, &vf):
		return "verification_failed"
	case errors.Is(err, domain.ErrSubmissionInProgress):
		return "submission_in_progress"
	case errors.Is(err, domain.ErrConfirmationLocked):
		return "confirmation_locked"
	case errors.Is(err, domain.ErrFlowClosed):
		return "session_closed"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "internal"
	}
}
