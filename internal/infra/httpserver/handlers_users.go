package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/automaton-assurance/internal/application/users"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
	"github.com/bryanwahyu/automaton-assurance/internal/middleware"
)

// userID reads {id}; anything that is not a uuid cannot exist.
func userID(req *http.Request) (string, error) {
	id := chi.URLParam(req, "id")
	if !middleware.ValidID(id) {
		return "", identity.ErrUserNotFound
	}
	return id, nil
}

// GET /api/users
func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) error {
	list, err := r.Users.List(req.Context(), middleware.UserFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"users": list})
}

// POST /api/users/invite
func (r *Router) handleInvite(w http.ResponseWriter, req *http.Request) error {
	var body users.InviteCommand
	if err := decode(req, &body); err != nil {
		return err
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if err := middleware.ValidateInvite(body.Email, body.Role); err != nil {
		return err
	}
	res, err := r.Users.Invite(req.Context(), middleware.UserFromContext(req.Context()), body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, res)
}

// PATCH /api/users/{id}
func (r *Router) handleUpdateUser(w http.ResponseWriter, req *http.Request) error {
	id, err := userID(req)
	if err != nil {
		return err
	}
	var patch identity.UserPatch
	if err := decode(req, &patch); err != nil {
		return err
	}
	if patch.FirstName != nil {
		s := middleware.SanitizeString(*patch.FirstName)
		patch.FirstName = &s
	}
	if patch.LastName != nil {
		s := middleware.SanitizeString(*patch.LastName)
		patch.LastName = &s
	}
	if err := middleware.ValidateUserPatch(patch); err != nil {
		return err
	}
	if err := r.Users.Update(req.Context(), middleware.UserFromContext(req.Context()), id, patch); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"message": "User updated successfully"})
}

// DELETE /api/users/{id}
func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request) error {
	id, err := userID(req)
	if err != nil {
		return err
	}
	if err := r.Users.Delete(req.Context(), middleware.UserFromContext(req.Context()), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// GET /api/audit?limit=
func (r *Router) handleAuditLog(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	entries, err := r.Users.AuditLog(req.Context(), middleware.UserFromContext(req.Context()), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
