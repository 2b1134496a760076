package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"foodflow-pickup/internal/config"
	"foodflow-pickup/internal/infra/i18n"
	"foodflow-pickup/internal/infra/redis"
	"foodflow-pickup/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AttemptLimiter caps confirm attempts per key within a window.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (redis.AttemptQuota, error)
}

type Server struct {
	confirmUC   usecase.ConfirmationUseCase
	toleranceUC usecase.ToleranceUseCase
	sessions    *SessionRegistry
	auth        *AuthManager
	locales     *i18n.Bundle
	limiter     AttemptLimiter
	locker      redis.Locker
	metrics     http.Handler
	cfg         config.ConfirmationConfig
	timeout     time.Duration
	log         *zerolog.Logger
}

func NewServer(
	confirmUC usecase.ConfirmationUseCase,
	toleranceUC usecase.ToleranceUseCase,
	sessions *SessionRegistry,
	auth *AuthManager,
	locales *i18n.Bundle,
	cfg config.ConfirmationConfig,
	requestTimeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		confirmUC:   confirmUC,
		toleranceUC: toleranceUC,
		sessions:    sessions,
		auth:        auth,
		locales:     locales,
		cfg:         cfg,
		timeout:     requestTimeout,
		log:         logger,
	}
}

// WithRedis enables per-donation rate limiting and submission locking.
// Either may be nil.
func (s *Server) WithRedis(limiter AttemptLimiter, locker redis.Locker) *Server {
	s.limiter = limiter
	s.locker = locker
	return s
}

// WithMetrics serves h at /metrics.
func (s *Server) WithMetrics(h http.Handler) *Server {
	s.metrics = h
	return s
}

// Router builds the full HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method_not_allowed", Message: "method not allowed"})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(RoleDonor, RoleAdmin))
			r.Post("/pickups/confirmations", s.handleOpen)
			r.Get("/pickups/confirmations/{id}", s.handleGet)
			r.Delete("/pickups/confirmations/{id}", s.handleCancel)
			r.Put("/pickups/confirmations/{id}/digits/{index}", s.handleSetDigit)
			r.Post("/pickups/confirmations/{id}/digits/{index}/backspace", s.handleBackspace)
			r.Post("/pickups/confirmations/{id}/paste", s.handlePaste)
			r.Post("/pickups/confirmations/{id}/confirm", s.handleConfirm)
			r.Get("/pickups/tolerance", s.handleGetTolerance)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(RoleAdmin))
			r.Put("/pickups/tolerance", s.handleUpdateTolerance)
			r.Get("/pickups/attempts", s.handleListAttempts)
		})
	})

	return Chain(r, TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.timeout))
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto its status code; msg overrides the error text.
func writeError(w http.ResponseWriter, status int, err error, msg string) {
	code := errorCode(err)
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
