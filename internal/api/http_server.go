package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"lawnly/internal/auth"
	"lawnly/internal/config"
	"lawnly/internal/database"
	"lawnly/internal/export"
	"lawnly/internal/metrics"
	"lawnly/internal/models"
	"lawnly/internal/service"
	"lawnly/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Resyncer rebuilds the external ledger from the database.
type Resyncer interface {
	Resync(ctx context.Context, start, end time.Time) error
}

// Server exposes the booking platform over HTTP.
type Server struct {
	cfg      config.APIConfig
	auth     *auth.Manager
	bookings *service.BookingService
	catalog  *service.CatalogService
	reviews  *service.ReviewService
	profiles *service.ProfileService
	store    *store.BookingStore
	exporter *export.Exporter
	resyncer Resyncer
	log      zerolog.Logger

	server   *http.Server
	limiters sync.Map // map[string]*rate.Limiter
}

// Deps bundles everything the HTTP layer sits on top of.
type Deps struct {
	Auth     *auth.Manager
	Bookings *service.BookingService
	Catalog  *service.CatalogService
	Reviews  *service.ReviewService
	Profiles *service.ProfileService
	Store    *store.BookingStore
	Exporter *export.Exporter
	Resyncer Resyncer
}

func NewServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *Server {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "api").Logger()
	}

	s := &Server{
		cfg:      cfg,
		auth:     deps.Auth,
		bookings: deps.Bookings,
		catalog:  deps.Catalog,
		reviews:  deps.Reviews,
		profiles: deps.Profiles,
		store:    deps.Store,
		exporter: deps.Exporter,
		resyncer: deps.Resyncer,
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)

	mux.HandleFunc("/api/v1/auth/signup", s.handleSignUp)
	mux.HandleFunc("/api/v1/auth/signin", s.handleSignIn)
	mux.HandleFunc("/api/v1/auth/signout", s.requireAuth(s.handleSignOut))
	mux.HandleFunc("/api/v1/auth/password-reset", s.handlePasswordResetRequest)
	mux.HandleFunc("/api/v1/auth/password-reset/confirm", s.handlePasswordResetConfirm)

	mux.HandleFunc("/api/v1/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("/api/v1/bookings", s.requireAuth(s.handleBookings))
	mux.HandleFunc("/api/v1/bookings/", s.requireAuth(s.handleBookingByID))

	mux.HandleFunc("/api/v1/services", s.requireAuth(s.handleServices))
	mux.HandleFunc("/api/v1/services/", s.requireAuth(s.handleServiceByID))
	mux.HandleFunc("/api/v1/provider-services", s.requireAuth(s.handleProviderServices))
	mux.HandleFunc("/api/v1/areas", s.requireAuth(s.handleAreas))

	mux.HandleFunc("/api/v1/providers", s.requireAuth(s.handleProviders))
	mux.HandleFunc("/api/v1/providers/", s.requireAuth(s.handleProviderByID))
	mux.HandleFunc("/api/v1/reviews", s.requireAuth(s.handleReviews))

	mux.HandleFunc("/api/v1/admin/bookings", s.requireAuth(s.handleAdminBookings))
	mux.HandleFunc("/api/v1/admin/export", s.requireAuth(s.handleAdminExport))
	mux.HandleFunc("/api/v1/admin/ledger/resync", s.requireAuth(s.handleLedgerResync))

	handler := s.loggingMiddleware(s.rateLimitMiddleware(mux))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return s
}

// Handler returns the full middleware chain, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authedHandler receives the resolved session alongside the request.
type authedHandler func(w http.ResponseWriter, r *http.Request, session *models.Session)

func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		session, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			s.log.Error().Err(err).Msg("authenticate error")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		next(w, r, session)
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit.RPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		lim := s.getLimiter(clientKey(r))
		if !lim.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey prefers the bearer token so each authenticated identity gets
// its own bucket; anonymous callers share a per-host bucket.
func clientKey(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (s *Server) getLimiter(key string) *rate.Limiter {
	if v, ok := s.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := s.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(s.cfg.RateLimit.RPS), burst)
	actual, loaded := s.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r.URL.Path))
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// endpointLabel collapses resource IDs so metric cardinality stays bounded.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return "/" + strings.Join(parts, "/")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// writeServiceError maps domain errors onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrDuplicateReview):
		writeError(w, http.StatusConflict, "booking already reviewed")
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrDateTooFar),
		errors.Is(err, service.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	startStr := strings.TrimSpace(r.URL.Query().Get("start"))
	endStr := strings.TrimSpace(r.URL.Query().Get("end"))
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end are required")
	}

	start, err := time.Parse(models.DateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date; expected YYYY-MM-DD")
	}
	end, err := time.Parse(models.DateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date; expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date before start date")
	}
	return start, end, nil
}
