package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/application"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
)

const invitationTTL = 7 * 24 * time.Hour

// Service manages users inside the caller's organization. Permission checks
// happen in the router; the service enforces organization scoping.
type Service struct {
	Users       identity.UserRepository
	Sessions    identity.SessionRepository
	Audit       audit.Repository
	FrontendURL string
	Clock       application.Clock
	Log         *zap.Logger
}

func (s *Service) record(ctx context.Context, actor *identity.User, action, resourceID string, details any) {
	application.Recorder{Repo: s.Audit, Clock: s.Clock, Log: s.Log}.Record(ctx, application.Event{
		OrganizationID: actor.OrganizationID,
		UserID:         actor.ID,
		Action:         action,
		ResourceType:   "user",
		ResourceID:     resourceID,
		Details:        details,
	})
}

// List returns active users of the actor's organization, newest first.
func (s *Service) List(ctx context.Context, actor *identity.User) ([]*identity.User, error) {
	return s.Users.ListByOrganization(ctx, actor.OrganizationID)
}

// AuditLog returns the organization's newest audit rows.
func (s *Service) AuditLog(ctx context.Context, actor *identity.User, limit int) ([]*audit.Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Audit.ListByOrganization(ctx, actor.OrganizationID, limit)
}

type InviteCommand struct {
	Email string        `json:"email"`
	Role  identity.Role `json:"role"`
}

type InviteResult struct {
	Message       string `json:"message"`
	InvitationURL string `json:"invitationUrl"`
}

// Invite stores a 7-day invitation and returns its acceptance URL. No email is sent.
func (s *Service) Invite(ctx context.Context, actor *identity.User, cmd InviteCommand) (*InviteResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if cmd.Role == "" {
		cmd.Role = identity.RoleViewer
	}
	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, identity.ErrUserExists
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("invitation token: %w", err)
	}
	token := hex.EncodeToString(buf)

	inv := &identity.Invitation{
		ID:             uuid.NewString(),
		OrganizationID: actor.OrganizationID,
		Email:          email,
		Role:           cmd.Role,
		Token:          token,
		InvitedBy:      actor.ID,
		ExpiresAt:      s.Clock.Now().UTC().Add(invitationTTL),
	}
	if err := s.Users.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	s.record(ctx, actor, audit.ActionUserInvited, "", map[string]string{"email": email, "role": string(cmd.Role)})

	return &InviteResult{
		Message:       "Invitation sent",
		InvitationURL: fmt.Sprintf("%s/accept-invitation?token=%s", strings.TrimRight(s.FrontendURL, "/"), token),
	}, nil
}

// Update applies the non-nil fields of patch to a user of the same organization.
func (s *Service) Update(ctx context.Context, actor *identity.User, id string, patch identity.UserPatch) error {
	if _, err := s.Users.GetInOrganization(ctx, actor.OrganizationID, id); err != nil {
		return err
	}
	if err := s.Users.Update(ctx, actor.OrganizationID, id, patch); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.record(ctx, actor, audit.ActionUserUpdated, id, patch)
	return nil
}

// Delete soft-deletes the user and revokes every session they hold.
func (s *Service) Delete(ctx context.Context, actor *identity.User, id string) error {
	if id == actor.ID {
		return identity.ErrSelfDelete
	}
	now := s.Clock.Now().UTC()
	if err := s.Users.SoftDelete(ctx, actor.OrganizationID, id); err != nil {
		return err
	}
	if err := s.Sessions.RevokeAllForUser(ctx, id, now); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.record(ctx, actor, audit.ActionUserDeleted, id, nil)
	return nil
}
