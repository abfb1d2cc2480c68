package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSSORequired         = errors.New("please use SSO to login")
	ErrUserNotFound        = errors.New("user not found")
	ErrSessionInvalid      = errors.New("invalid or expired session")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidTokenType    = errors.New("invalid token type")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrForbidden           = errors.New("insufficient permissions")
	ErrSelfDelete          = errors.New("cannot delete your own account")
)

// UserRepository port. Lookups return ErrUserNotFound for missing or deleted rows.
type UserRepository interface {
	CreateOrganization(ctx context.Context, o *Organization) error
	CreateUser(ctx context.Context, u *User) error
	EmailExists(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetInOrganization(ctx context.Context, org, id string) (*User, error)
	ListByOrganization(ctx context.Context, org string) ([]*User, error)
	Update(ctx context.Context, org, id string, patch UserPatch) error
	SoftDelete(ctx context.Context, org, id string) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
	CreateInvitation(ctx context.Context, inv *Invitation) error
}

// SessionRepository port. Find* return ErrSessionInvalid when no usable session matches.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	FindActive(ctx context.Context, userID, tokenHash string, now time.Time) (*Session, error)
	FindByRefresh(ctx context.Context, userID, refreshHash string) (*Session, error)
	Rotate(ctx context.Context, id, tokenHash, refreshHash string, expiresAt time.Time) error
	RevokeByToken(ctx context.Context, tokenHash string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
}
