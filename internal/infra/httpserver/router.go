package httpserver

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/application/analysis"
	"github.com/bryanwahyu/automaton-assurance/internal/application/auth"
	"github.com/bryanwahyu/automaton-assurance/internal/application/ingest"
	"github.com/bryanwahyu/automaton-assurance/internal/application/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/application/users"
	domai "github.com/bryanwahyu/automaton-assurance/internal/domain/ai"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
	domreports "github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/export/pdf"
	"github.com/bryanwahyu/automaton-assurance/internal/logging"
	"github.com/bryanwahyu/automaton-assurance/internal/middleware"
)

// Deps is everything the router needs. Health and RateLimiter are optional.
type Deps struct {
	Auth        *auth.Service
	Users       *users.Service
	Analysis    *analysis.Service
	Reports     *reports.Service
	Ingest      ingest.Ingestor
	Log         *zap.Logger
	Health      map[string]middleware.HealthChecker
	RateLimiter *middleware.RateLimiter
	FrontendURL string
	CookieName  string
	BodyLimit   int64 // bytes
}

type Router struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.CookieName == "" {
		d.CookieName = "token"
	}
	if d.BodyLimit <= 0 {
		d.BodyLimit = 50 << 20
	}
	r := &Router{Deps: d}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(middleware.LoggingMiddleware(d.Log))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(middleware.ClientInfo)
	mux.Use(r.limitBody)

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(d.Health))
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	authn := middleware.Authenticate(d.Auth, d.CookieName)
	limited := func(h http.Handler) http.Handler { return h }
	if d.RateLimiter != nil {
		limited = middleware.RateLimitMiddleware(d.RateLimiter)
	}

	mux.Route("/auth", func(rt chi.Router) {
		rt.With(limited).Post("/register", r.wrap(r.handleRegister))
		rt.With(limited).Post("/login", r.wrap(r.handleLogin))
		rt.With(limited).Post("/refresh", r.wrap(r.handleRefresh))
		rt.With(authn).Post("/logout", r.wrap(r.handleLogout))
		rt.With(authn).Get("/me", r.wrap(r.handleMe))
	})

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(authn)

		rt.With(limited).Post("/analyses", r.wrap(r.handleAnalyze))

		rt.Get("/reports", r.wrap(r.handleListReports))
		rt.With(middleware.RequirePermission(identity.PermReportsCreate)).Post("/reports", r.wrap(r.handleSaveReport))
		rt.Get("/reports/{id}", r.wrap(r.handleGetReport))
		rt.With(middleware.RequirePermission(identity.PermReportsDelete)).Delete("/reports/{id}", r.wrap(r.handleDeleteReport))
		rt.Get("/reports/{id}/view", r.wrap(r.handleViewReport))
		rt.Get("/reports/{id}/export/xlsx", r.wrap(r.handleExportXLSX))
		rt.Get("/reports/{id}/export/pdf", r.wrap(r.handleExportPDF))
		rt.With(middleware.RequirePermission(identity.PermReportsCreate)).Post("/reports/{id}/exports", r.wrap(r.handleArchive))

		rt.With(middleware.RequireOrgAdmin).Get("/users", r.wrap(r.handleListUsers))
		rt.With(middleware.RequirePermission(identity.PermUsersCreate)).Post("/users/invite", r.wrap(r.handleInvite))
		rt.With(middleware.RequirePermission(identity.PermUsersUpdate)).Patch("/users/{id}", r.wrap(r.handleUpdateUser))
		rt.With(middleware.RequirePermission(identity.PermUsersDelete)).Delete("/users/{id}", r.wrap(r.handleDeleteUser))
		rt.With(middleware.RequireOrgAdmin).Get("/audit", r.wrap(r.handleAuditLog))
	})

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	return mux
}

func (r *Router) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, r.BodyLimit)
		next.ServeHTTP(w, req)
	})
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError is a handler-level failure with a fixed status and message.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(msg string) error { return &httpError{status: http.StatusBadRequest, msg: msg} }

var errorStatus = []struct {
	err    error
	status int
	msg    string
}{
	{domreports.ErrNotFound, http.StatusNotFound, "Report not found"},
	{identity.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{identity.ErrEmailTaken, http.StatusBadRequest, "Email already registered"},
	{identity.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{identity.ErrSelfDelete, http.StatusBadRequest, "Cannot delete your own account"},
	{identity.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{identity.ErrSSORequired, http.StatusUnauthorized, "Please use SSO to login"},
	{identity.ErrInvalidTokenType, http.StatusUnauthorized, "Invalid token type"},
	{identity.ErrInvalidRefreshToken, http.StatusUnauthorized, "Invalid refresh token"},
	{identity.ErrTokenExpired, http.StatusUnauthorized, "Token expired"},
	{identity.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{identity.ErrForbidden, http.StatusForbidden, "Insufficient permissions"},
	{domai.ErrQuotaExceeded, http.StatusTooManyRequests, "AI quota exceeded, please try again later"},
	{domai.ErrMalformedResponse, http.StatusBadGateway, "The assessment response could not be parsed"},
	{domai.ErrEmptyResponse, http.StatusBadGateway, "The assessment provider returned no content"},
	{domai.ErrProvider, http.StatusBadGateway, "Failed to generate assurance report"},
	{pdf.ErrDisabled, http.StatusNotImplemented, "PDF export is not available"},
	{reports.ErrArchiveDisabled, http.StatusNotImplemented, "Export archive is not configured"},
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var he *httpError
		if errors.As(err, &he) {
			middleware.WriteError(w, he.status, he.msg)
			return
		}
		var pv *assurance.ValidationError
		if errors.As(err, &pv) {
			writeValidation(w, pv.Problems)
			return
		}
		var mv *middleware.ValidationError
		if errors.As(err, &mv) {
			writeValidation(w, mv.Errors)
			return
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		for _, m := range errorStatus {
			if errors.Is(err, m.err) {
				if m.status >= 500 {
					logging.FromContext(req.Context(), r.Log).Error("request failed", zap.Error(err))
				}
				middleware.WriteError(w, m.status, m.msg)
				return
			}
		}

		logging.FromContext(req.Context(), r.Log).Error("request failed", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeValidation(w http.ResponseWriter, problems []string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  strings.Join(problems, " "),
		"errors": problems,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body; malformed input is a 400.
func decode(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return badRequest("Invalid JSON body")
	}
	return nil
}

func attachment(w http.ResponseWriter, filename, contentType string, data []byte) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(data)
	return err
}
