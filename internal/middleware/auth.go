package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
	"github.com/bryanwahyu/automaton-assurance/internal/logging"
)

type contextKey string

const (
	UserKey  contextKey = "user"
	TokenKey contextKey = "token"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.User, error)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// TokenFromRequest reads "Authorization: Bearer <token>" first, then the cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); tok != "" {
			return tok
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate rejects the request with 401 unless it carries a valid access token
// bound to an active session.
func Authenticate(a Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			u, err := a.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, identity.ErrTokenExpired):
				WriteError(w, http.StatusUnauthorized, "Token expired")
				return
			case errors.Is(err, identity.ErrInvalidToken):
				WriteError(w, http.StatusUnauthorized, "Invalid token")
				return
			case errors.Is(err, identity.ErrSessionInvalid):
				WriteError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			case errors.Is(err, identity.ErrUserNotFound):
				WriteError(w, http.StatusUnauthorized, "User not found")
				return
			default:
				logging.FromContext(r.Context(), nil).Error("authentication failed", zap.Error(err))
				WriteError(w, http.StatusInternalServerError, "Authentication failed")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, u)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user, nil outside Authenticate.
func UserFromContext(ctx context.Context) *identity.User {
	u, _ := ctx.Value(UserKey).(*identity.User)
	return u
}

// TokenFromContext returns the raw access token of the request.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(TokenKey).(string)
	return t
}

// RequireOrgAdmin allows org admins and super admins.
func RequireOrgAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !u.IsAdmin() {
			WriteError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission checks the role permission map.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !u.Can(perm) {
				WriteError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientInfo stores caller ip and user agent for audit rows.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithClient(r.Context(), audit.Client{IP: ClientIP(r), UserAgent: r.UserAgent()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP trusts the first X-Forwarded-For hop, then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
