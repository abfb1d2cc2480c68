package httpserver

import (
	"net/http"
	"strings"

	"github.com/bryanwahyu/automaton-assurance/internal/application/auth"
	"github.com/bryanwahyu/automaton-assurance/internal/middleware"
)

// POST /auth/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body auth.RegisterCommand
	if err := decode(req, &body); err != nil {
		return err
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.FirstName = middleware.SanitizeString(body.FirstName)
	body.LastName = middleware.SanitizeString(body.LastName)
	body.OrganizationName = middleware.SanitizeString(body.OrganizationName)
	if err := middleware.ValidateRegistration(body.Email, body.Password, body.FirstName, body.LastName, body.OrganizationName); err != nil {
		return err
	}

	res, err := r.Auth.Register(req.Context(), body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, res)
}

// POST /auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	var v middleware.Validator
	v.Check(middleware.ValidEmail(strings.ToLower(strings.TrimSpace(body.Email))), "valid email is required")
	v.Check(body.Password != "", "password is required")
	if err := v.Err(); err != nil {
		return err
	}

	res, err := r.Auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// POST /auth/logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()
	if err := r.Auth.Logout(ctx, middleware.UserFromContext(ctx), middleware.TokenFromContext(ctx)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// POST /auth/refresh
// Body: {"refreshToken": "<jwt>"}
func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	if body.RefreshToken == "" {
		return badRequest("Refresh token required")
	}
	pair, err := r.Auth.Refresh(req.Context(), body.RefreshToken)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, pair)
}

// GET /auth/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]any{"user": middleware.UserFromContext(req.Context())})
}
