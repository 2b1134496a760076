package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/infra/i18n"
	"foodflow-pickup/internal/infra/logging"
	"foodflow-pickup/internal/infra/metrics"
	"foodflow-pickup/internal/infra/redis"
	"foodflow-pickup/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type slotRequest struct {
	PickupDate string `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	StartTime  string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime    string `json:"end_time" validate:"required,datetime=15:04"`
}

type openSessionRequest struct {
	DonationID string       `json:"donation_id" validate:"required,max=64"`
	PickupSlot *slotRequest `json:"pickup_slot"`
}

type digitRequest struct {
	Value *string `json:"value" validate:"required,max=8"`
}

type pasteRequest struct {
	StartIndex int    `json:"start_index" validate:"min=0,max=5"`
	Text       string `json:"text" validate:"max=64"`
}

type toleranceRequest struct {
	EarlyToleranceMinutes *int `json:"early_tolerance_minutes" validate:"required,min=0,max=1440"`
	LateToleranceMinutes  *int `json:"late_tolerance_minutes" validate:"required,min=0,max=1440"`
}

type windowView struct {
	Status       model.WindowState `json:"status"`
	Severity     model.Severity    `json:"severity"`
	Message      string            `json:"message"`
	Minutes      int               `json:"minutes"`
	AllowedStart time.Time         `json:"allowed_start"`
	WindowStart  time.Time         `json:"window_start"`
	WindowEnd    time.Time         `json:"window_end"`
	AllowedEnd   time.Time         `json:"allowed_end"`
}

type sessionView struct {
	ID         string         `json:"id"`
	DonationID string         `json:"donation_id"`
	State      string         `json:"state"`
	Digits     []string       `json:"digits"`
	Complete   bool           `json:"complete"`
	CanConfirm bool           `json:"can_confirm"`
	CanCancel  bool           `json:"can_cancel"`
	LastError  string         `json:"last_error,omitempty"`
	Window     *windowView    `json:"window"`
	Tolerance  *toleranceView `json:"tolerance,omitempty"`
}

type editResponse struct {
	sessionView
	Accepted bool `json:"accepted"`
	Focus    *int `json:"focus"`
}

type confirmResponse struct {
	Outcome model.OutcomeKind `json:"outcome"`
	Message string            `json:"message"`
	Session sessionView       `json:"session"`
}

type rateLimitedBody struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RemainingAttempts int    `json:"remaining_attempts"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

type confirmFailure struct {
	Error   string            `json:"error"`
	Outcome model.OutcomeKind `json:"outcome"`
	Message string            `json:"message"`
	Window  *windowView       `json:"window,omitempty"`
}

type toleranceView struct {
	EarlyToleranceMinutes int       `json:"early_tolerance_minutes"`
	LateToleranceMinutes  int       `json:"late_tolerance_minutes"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// translator picks the caller's locale and announces it on w.
func (s *Server) translator(w http.ResponseWriter, r *http.Request) *i18n.Translator {
	tr := s.locales.For(r.Header.Get("Accept-Language"))
	w.Header().Set("Content-Language", tr.Lang())
	return tr
}

// evaluate runs the window evaluator for flow and counts the result.
func (s *Server) evaluate(flow *usecase.Flow) *model.WindowStatus {
	ws, err := flow.Window()
	countWindow(ws, err != nil)
	if err != nil {
		return nil
	}
	return ws
}

func countWindow(ws *model.WindowStatus, invalid bool) {
	switch {
	case invalid:
		metrics.IncWindowEvaluation("invalid")
	case ws == nil:
		metrics.IncWindowEvaluation("")
	default:
		metrics.IncWindowEvaluation(string(ws.Status))
	}
}

func toWindowView(ws *model.WindowStatus, tr *i18n.Translator) *windowView {
	if ws == nil {
		return nil
	}
	return &windowView{
		Status:       ws.Status,
		Severity:     ws.Severity,
		Message:      tr.Window(ws),
		Minutes:      ws.Minutes,
		AllowedStart: ws.AllowedStart,
		WindowStart:  ws.WindowStart,
		WindowEnd:    ws.WindowEnd,
		AllowedEnd:   ws.AllowedEnd,
	}
}

func (s *Server) view(id string, flow *usecase.Flow, tr *i18n.Translator) sessionView {
	return s.viewAt(id, flow, tr, s.evaluate(flow))
}

// viewAt renders flow with an already evaluated window.
func (s *Server) viewAt(id string, flow *usecase.Flow, tr *i18n.Translator, ws *model.WindowStatus) sessionView {
	snap := flow.Snapshot()
	v := sessionView{
		ID:         id,
		State:      string(snap.State),
		Digits:     snap.Digits,
		Complete:   snap.Complete,
		CanConfirm: snap.CanConfirm,
		CanCancel:  snap.CanCancel,
		LastError:  snap.LastError,
		Window:     toWindowView(ws, tr),
	}
	if d := flow.Donation(); d != nil {
		v.DonationID = d.ID
	}
	if p := flow.Policy(); p != nil {
		v.Tolerance = &toleranceView{
			EarlyToleranceMinutes: p.EarlyToleranceMinutes,
			LateToleranceMinutes:  p.LateToleranceMinutes,
			UpdatedAt:             p.UpdatedAt,
		}
	}
	return v
}

// lookup resolves the {id} session of the calling principal.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *usecase.Flow, context.Context, bool) {
	p, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized, "")
		return "", nil, nil, false
	}
	id := chi.URLParam(r, "id")
	flow, err := s.sessions.Get(id, p.Subject)
	if err != nil {
		writeError(w, http.StatusNotFound, err, "confirmation session not found")
		return "", nil, nil, false
	}
	ctx := logging.WithSessID(r.Context(), id)
	if d := flow.Donation(); d != nil {
		ctx = logging.WithDonationID(ctx, d.ID)
	}
	return id, flow, ctx, true
}

func slotIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 || idx >= model.CodeLength {
		writeError(w, http.StatusBadRequest, validationError{}, "index must be between 0 and 5")
		return 0, false
	}
	return idx, true
}

func focusPtr(f model.FocusIntent) *int {
	if i, ok := f.Index(); ok {
		return &i
	}
	return nil
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized, "")
		return
	}
	var req openSessionRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err, err.Error())
		return
	}

	donation := &model.Donation{ID: req.DonationID}
	if req.PickupSlot != nil {
		donation.ConfirmedPickupSlot = &model.PickupSlot{
			PickupDate: req.PickupSlot.PickupDate,
			StartTime:  req.PickupSlot.StartTime,
			EndTime:    req.PickupSlot.EndTime,
		}
	}

	id := NewSessionID()
	ctx := logging.WithDonationID(logging.WithSessID(r.Context(), id), donation.ID)
	l := logging.With(ctx, s.log)
	flow, err := s.confirmUC.Open(ctx, usecase.FlowActivation{
		Donation:   donation,
		IsOpen:     true,
		Credential: adapter.Credential{Token: p.Token},
		UserID:     p.Subject,
	}, usecase.FlowCallbacks{
		OnSuccess: func() { l.Info().Msg("pickup confirmation succeeded") },
		OnClose:   func() { s.sessions.Remove(id) },
	})
	if err != nil {
		writeError(w, statusFor(err), err, "")
		return
	}
	s.sessions.Put(id, p.Subject, flow)
	l.Debug().Msg("confirmation session opened")

	writeJSON(w, http.StatusCreated, s.view(id, flow, s.translator(w, r)))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, flow, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(id, flow, s.translator(w, r)))
}

func (s *Server) handleSetDigit(w http.ResponseWriter, r *http.Request) {
	id, flow, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	idx, ok := slotIndex(w, r)
	if !ok {
		return
	}
	var req digitRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err, err.Error())
		return
	}
	if flow.State() == usecase.FlowClosed {
		writeError(w, http.StatusConflict, domain.ErrFlowClosed, "")
		return
	}
	focus, accepted := flow.SetDigit(idx, *req.Value)
	writeJSON(w, http.StatusOK, editResponse{
		sessionView: s.view(id, flow, s.translator(w, r)),
		Accepted:    accepted,
		Focus:       focusPtr(focus),
	})
}

func (s *Server) handleBackspace(w http.ResponseWriter, r *http.Request) {
	id, flow, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	idx, ok := slotIndex(w, r)
	if !ok {
		return
	}
	if flow.State() == usecase.FlowClosed {
		writeError(w, http.StatusConflict, domain.ErrFlowClosed, "")
		return
	}
	focus := flow.Backspace(idx)
	writeJSON(w, http.StatusOK, editResponse{
		sessionView: s.view(id, flow, s.translator(w, r)),
		Accepted:    true,
		Focus:       focusPtr(focus),
	})
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	id, flow, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req pasteRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err, err.Error())
		return
	}
	if flow.State() == usecase.FlowClosed {
		writeError(w, http.StatusConflict, domain.ErrFlowClosed, "")
		return
	}
	focus := flow.Paste(req.StartIndex, req.Text)
	writeJSON(w, http.StatusOK, editResponse{
		sessionView: s.view(id, flow, s.translator(w, r)),
		Accepted:    true,
		Focus:       focusPtr(focus),
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, flow, ctx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	l := logging.With(ctx, s.log)
	tr := s.translator(w, r)
	donationID := ""
	if d := flow.Donation(); d != nil {
		donationID = d.ID
	}

	if s.limiter != nil && s.cfg.MaxAttempts > 0 {
		quota, err := s.limiter.Allow(ctx, redis.DonationAttemptKey(donationID), s.cfg.MaxAttempts, s.cfg.AttemptWindow)
		if err != nil {
			l.Warn().Err(err).Msg("rate limiter unavailable; allowing attempt")
		} else {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
			if !quota.Allowed {
				retry := int((quota.ResetIn + time.Second - 1) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeJSON(w, http.StatusTooManyRequests, rateLimitedBody{
					Error:             errorCode(domain.ErrRateLimited),
					Message:           "too many confirmation attempts, try again later",
					RemainingAttempts: quota.Remaining,
					RetryAfterSeconds: retry,
				})
				return
			}
		}
	}

	if s.locker != nil {
		key := redis.DonationLockKey(donationID)
		token, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
		switch {
		case errors.Is(err, domain.ErrConfirmationLocked):
			writeError(w, http.StatusConflict, err, "another confirmation for this donation is in progress")
			return
		case err != nil:
			l.Warn().Err(err).Msg("confirmation lock unavailable; continuing without it")
		default:
			defer func() {
				if uerr := s.locker.Unlock(context.Background(), key, token); uerr != nil {
					l.Warn().Err(uerr).Msg("failed to release confirmation lock")
				}
			}()
		}
	}

	ws, err := flow.Submit(ctx)
	if errors.Is(err, domain.ErrSubmissionInProgress) || errors.Is(err, domain.ErrFlowClosed) {
		writeError(w, http.StatusConflict, err, "")
		return
	}
	hasSlot := flow.Donation() != nil && flow.Donation().ConfirmedPickupSlot != nil
	countWindow(ws, ws == nil && hasSlot)

	outcome := model.OutcomeFromError(err)
	metrics.IncConfirmation(string(outcome.Kind))
	if err == nil {
		writeJSON(w, http.StatusOK, confirmResponse{
			Outcome: outcome.Kind,
			Message: tr.Outcome(outcome, ws),
			Session: s.viewAt(id, flow, tr, ws),
		})
		return
	}

	body := confirmFailure{
		Error:   errorCode(err),
		Outcome: outcome.Kind,
		Message: tr.Outcome(outcome, ws),
	}
	if outcome.Kind == model.OutcomeWindowClosed {
		body.Window = toWindowView(ws, tr)
	}
	writeJSON(w, statusFor(err), body)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	_, flow, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := flow.Cancel(); err != nil {
		writeError(w, statusFor(err), err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTolerance(w http.ResponseWriter, r *http.Request) {
	p, err := s.toleranceUC.Current(r.Context())
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("failed to read tolerance policy")
		writeError(w, http.StatusBadGateway, err, "tolerance policy unavailable")
		return
	}
	writeJSON(w, http.StatusOK, toleranceView{
		EarlyToleranceMinutes: p.EarlyToleranceMinutes,
		LateToleranceMinutes:  p.LateToleranceMinutes,
		UpdatedAt:             p.UpdatedAt,
	})
}

func (s *Server) handleUpdateTolerance(w http.ResponseWriter, r *http.Request) {
	var req toleranceRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err, err.Error())
		return
	}
	p, err := s.toleranceUC.Update(r.Context(), *req.EarlyToleranceMinutes, *req.LateToleranceMinutes)
	if err != nil {
		writeError(w, statusFor(err), err, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toleranceView{
		EarlyToleranceMinutes: p.EarlyToleranceMinutes,
		LateToleranceMinutes:  p.LateToleranceMinutes,
		UpdatedAt:             p.UpdatedAt,
	})
}

type attemptView struct {
	ID           string            `json:"id"`
	DonationID   string            `json:"donation_id"`
	UserID       string            `json:"user_id"`
	Outcome      model.OutcomeKind `json:"outcome"`
	Reason       string            `json:"reason,omitempty"`
	WindowStatus string            `json:"window_status,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type attemptsQuery struct {
	DonationID string `json:"donation_id" validate:"required,max=128"`
	Limit      int    `json:"limit" validate:"min=0,max=200"`
}

const defaultAttemptsLimit = 50

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	q := attemptsQuery{DonationID: r.URL.Query().Get("donation_id"), Limit: defaultAttemptsLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, validationError{msg: "limit must be a number"}, "limit must be a number")
			return
		}
		q.Limit = n
	}
	if err := validateStruct(q); err != nil {
		writeError(w, http.StatusBadRequest, err, err.Error())
		return
	}

	attempts, err := s.confirmUC.History(r.Context(), q.DonationID, q.Limit)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			l := logging.With(r.Context(), s.log)
			l.Error().Err(err).Str("donation_id", q.DonationID).Msg("failed to list pickup attempts")
		}
		writeError(w, statusFor(err), err, "")
		return
	}
	out := make([]attemptView, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptView{
			ID:           a.ID,
			DonationID:   a.DonationID,
			UserID:       a.UserID,
			Outcome:      a.Outcome,
			Reason:       a.Reason,
			WindowStatus: a.WindowStatus,
			CreatedAt:    a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
