package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/db/memory"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func newService(t *testing.T) (*Service, *memory.Store, *fixedClock) {
	t.Helper()
	store := memory.New()
	clock := &fixedClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return &Service{
		Users:      store,
		Sessions:   store,
		Audit:      store.Audit(),
		Secret:     []byte("test-secret"),
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
		Clock:      clock,
	}, store, clock
}

func register(t *testing.T, svc *Service) *AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterCommand{
		Email:            " Ana@Example.com ",
		Password:         "hunter22",
		FirstName:        "Ana",
		LastName:         "Lopez",
		OrganizationName: "Acme Health & Co",
	})
	require.NoError(t, err)
	return res
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "acme-health-co", Slug("Acme Health & Co"))
	assert.Equal(t, "-x-", Slug("!x!"))
}

func TestRegister_CreatesAdminAndSession(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	res := register(t, svc)
	assert.Equal(t, "ana@example.com", res.User.Email)
	assert.Equal(t, identity.RoleAdmin, res.User.Role)
	assert.True(t, res.User.IsOrgAdmin)
	assert.Equal(t, "acme-health-co", res.User.OrganizationSlug)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.RefreshToken)

	sess, err := store.FindActive(ctx, res.User.ID, HashToken(res.Token), svc.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, HashToken(res.RefreshToken), sess.RefreshTokenHash)

	entries, err := store.Audit().ListByOrganization(ctx, res.User.OrganizationID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionUserRegistered, entries[0].Action)

	_, err = svc.Register(ctx, RegisterCommand{Email: "ana@example.com", Password: "another1", OrganizationName: "X"})
	assert.ErrorIs(t, err, identity.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	reg := register(t, svc)

	res, err := svc.Login(ctx, "ANA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	require.NotNil(t, res.User.LastLoginAt)
	assert.NotEqual(t, reg.Token, res.Token)

	_, err = svc.Login(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	require.NoError(t, store.CreateUser(ctx, &identity.User{
		ID: "sso-user", OrganizationID: reg.User.OrganizationID, Email: "sso@example.com", Role: identity.RoleViewer,
	}))
	_, err = svc.Login(ctx, "sso@example.com", "whatever")
	assert.ErrorIs(t, err, identity.ErrSSORequired)
}

func TestAuthenticate(t *testing.T) {
	svc, _, clock := newService(t)
	ctx := context.Background()
	reg := register(t, svc)

	u, err := svc.Authenticate(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, u.ID)

	_, err = svc.Authenticate(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	other := *svc
	other.Secret = []byte("other-secret")
	_, err = other.Authenticate(ctx, reg.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	clock.t = clock.t.Add(2 * time.Hour)
	_, err = svc.Authenticate(ctx, reg.Token)
	assert.ErrorIs(t, err, identity.ErrTokenExpired)
}

func TestLogout_RevokesSession(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	reg := register(t, svc)

	require.NoError(t, svc.Logout(ctx, reg.User, reg.Token))
	_, err := svc.Authenticate(ctx, reg.Token)
	assert.ErrorIs(t, err, identity.ErrSessionInvalid)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	svc, _, clock := newService(t)
	ctx := context.Background()
	reg := register(t, svc)

	_, err := svc.Refresh(ctx, reg.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidTokenType)

	clock.t = clock.t.Add(time.Minute)
	pair, err := svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.Token, pair.Token)

	// old access token no longer matches the session row
	_, err = svc.Authenticate(ctx, reg.Token)
	assert.ErrorIs(t, err, identity.ErrSessionInvalid)
	_, err = svc.Authenticate(ctx, pair.Token)
	assert.NoError(t, err)

	// refresh token is single use
	_, err = svc.Refresh(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, identity.ErrInvalidRefreshToken)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	reg := register(t, svc)

	require.NoError(t, store.SoftDelete(ctx, reg.User.OrganizationID, reg.User.ID))
	_, err := svc.Authenticate(ctx, reg.Token)
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}
