package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/automaton-assurance/internal/application"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
)

// Service handles registration, login and session lifecycle.
type Service struct {
	Users      identity.UserRepository
	Sessions   identity.SessionRepository
	Audit      audit.Repository
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
	Clock      application.Clock
	Log        *zap.Logger
}

func (s *Service) recorder() application.Recorder {
	return application.Recorder{Repo: s.Audit, Clock: s.Clock, Log: s.Log}
}

type RegisterCommand struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	OrganizationName string `json:"organizationName"`
}

// AuthResult is the body returned by register and login.
type AuthResult struct {
	User *identity.User `json:"user"`
	TokenPair
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases name and collapses every run of other characters into '-'.
func Slug(name string) string {
	return slugRe.ReplaceAllString(strings.ToLower(name), "-")
}

// Register creates an organization and its first user, who becomes the org admin.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	taken, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, identity.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(cmd.OrganizationName)
	org := &identity.Organization{ID: uuid.NewString(), Name: name, Slug: Slug(name), CreatedAt: s.Clock.Now().UTC()}
	if err := s.Users.CreateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	hs := string(hash)
	u := &identity.User{
		ID:               uuid.NewString(),
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		OrganizationSlug: org.Slug,
		Email:            email,
		PasswordHash:     &hs,
		FirstName:        strings.TrimSpace(cmd.FirstName),
		LastName:         strings.TrimSpace(cmd.LastName),
		Role:             identity.RoleAdmin,
		IsOrgAdmin:       true,
		CreatedAt:        s.Clock.Now().UTC(),
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.startSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.recorder().Record(ctx, application.Event{
		OrganizationID: org.ID, UserID: u.ID, Action: audit.ActionUserRegistered, ResourceType: "user",
	})
	return &AuthResult{User: u, TokenPair: pair}, nil
}

// Login verifies the password. Unknown, deleted and wrong-password users all get
// identity.ErrInvalidCredentials; users without a password get identity.ErrSSORequired.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, identity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.DeletedAt != nil {
		return nil, identity.ErrInvalidCredentials
	}
	if u.PasswordHash == nil {
		return nil, identity.ErrSSORequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, identity.ErrInvalidCredentials
	}

	pair, err := s.startSession(ctx, u)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now().UTC()
	if err := s.Users.TouchLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLoginAt = &now
	s.recorder().Record(ctx, application.Event{OrganizationID: u.OrganizationID, UserID: u.ID, Action: audit.ActionUserLogin})
	return &AuthResult{User: u, TokenPair: pair}, nil
}

func (s *Service) startSession(ctx context.Context, u *identity.User) (TokenPair, error) {
	pair, err := s.issue(u.ID, u.OrganizationID)
	if err != nil {
		return TokenPair{}, err
	}
	now := s.Clock.Now().UTC()
	sess := &identity.Session{
		ID:               uuid.NewString(),
		UserID:           u.ID,
		TokenHash:        HashToken(pair.Token),
		RefreshTokenHash: HashToken(pair.RefreshToken),
		ExpiresAt:        now.Add(s.AccessTTL),
		CreatedAt:        now,
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return TokenPair{}, fmt.Errorf("create session: %w", err)
	}
	return pair, nil
}

// Logout revokes the session bound to token. An empty token only writes the audit row.
func (s *Service) Logout(ctx context.Context, u *identity.User, token string) error {
	if token != "" {
		if err := s.Sessions.RevokeByToken(ctx, HashToken(token), s.Clock.Now().UTC()); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
	}
	s.recorder().Record(ctx, application.Event{OrganizationID: u.OrganizationID, UserID: u.ID, Action: audit.ActionUserLogout})
	return nil
}

// Refresh rotates both tokens inside the same session row.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.Parse(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.Type != tokenTypeRefresh {
		return TokenPair{}, identity.ErrInvalidTokenType
	}
	sess, err := s.Sessions.FindByRefresh(ctx, claims.UserID, HashToken(refreshToken))
	if errors.Is(err, identity.ErrSessionInvalid) {
		return TokenPair{}, identity.ErrInvalidRefreshToken
	}
	if err != nil {
		return TokenPair{}, err
	}

	pair, err := s.issue(claims.UserID, claims.OrganizationID)
	if err != nil {
		return TokenPair{}, err
	}
	expires := s.Clock.Now().UTC().Add(s.AccessTTL)
	if err := s.Sessions.Rotate(ctx, sess.ID, HashToken(pair.Token), HashToken(pair.RefreshToken), expires); err != nil {
		return TokenPair{}, fmt.Errorf("rotate session: %w", err)
	}
	return pair, nil
}

// Authenticate resolves an access token to its user: valid signature, active session,
// user present and not deleted.
func (s *Service) Authenticate(ctx context.Context, token string) (*identity.User, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Type == tokenTypeRefresh {
		return nil, identity.ErrInvalidToken
	}
	if _, err := s.Sessions.FindActive(ctx, claims.UserID, HashToken(token), s.Clock.Now().UTC()); err != nil {
		if errors.Is(err, identity.ErrSessionInvalid) {
			return nil, identity.ErrSessionInvalid
		}
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u.DeletedAt != nil {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}
