// Package memory keeps every repository in process memory. Used for local runs
// without Postgres (database.driver: memory) and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
)

// Store implements reports.Repository, identity.UserRepository and
// identity.SessionRepository. Audit() returns the audit.Repository view.
type Store struct {
	mu          sync.RWMutex
	reports     map[reports.ReportID]reports.SavedReport
	orgs        map[string]identity.Organization
	users       map[string]identity.User
	sessions    map[string]identity.Session
	invitations []identity.Invitation
	audit       []audit.Entry
	auditSeq    int64
}

func New() *Store {
	return &Store{
		reports:  map[reports.ReportID]reports.SavedReport{},
		orgs:     map[string]identity.Organization{},
		users:    map[string]identity.User{},
		sessions: map[string]identity.Session{},
	}
}

// ==== reports ====

func (s *Store) Save(_ context.Context, r *reports.SavedReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = *r
	return nil
}

func (s *Store) Get(_ context.Context, org string, id reports.ReportID) (*reports.SavedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok || r.OrganizationID != org {
		return nil, reports.ErrNotFound
	}
	return &r, nil
}

func (s *Store) List(_ context.Context, org string, limit, offset int) ([]*reports.SavedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*reports.SavedReport, 0)
	for _, r := range s.reports {
		if r.OrganizationID == org {
			r := r
			out = append(out, &r)
		}
	}
	// same order as postgres: created_at DESC, id DESC
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if offset >= len(out) {
		return []*reports.SavedReport{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, org string, id reports.ReportID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.OrganizationID != org {
		return reports.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

// ==== users ====

func (s *Store) CreateOrganization(_ context.Context, o *identity.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[o.ID] = *o
	return nil
}

func (s *Store) CreateUser(_ context.Context, u *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return identity.ErrEmailTaken
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) withOrg(u identity.User) *identity.User {
	if o, ok := s.orgs[u.OrganizationID]; ok {
		u.OrganizationName, u.OrganizationSlug = o.Name, o.Slug
	}
	return &u
}

func (s *Store) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email && u.DeletedAt == nil {
			return s.withOrg(u), nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (s *Store) GetByID(_ context.Context, id string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, identity.ErrUserNotFound
	}
	return s.withOrg(u), nil
}

func (s *Store) GetInOrganization(ctx context.Context, org, id string) (*identity.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.OrganizationID != org {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) ListByOrganization(_ context.Context, org string) ([]*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*identity.User, 0)
	for _, u := range s.users {
		if u.OrganizationID == org && u.DeletedAt == nil {
			out = append(out, s.withOrg(u))
		}
	}
	// same order as postgres: created_at DESC, id DESC
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Update(_ context.Context, org, id string, p identity.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.OrganizationID != org || u.DeletedAt != nil {
		return identity.ErrUserNotFound
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	s.users[id] = u
	return nil
}

func (s *Store) SoftDelete(_ context.Context, org, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.OrganizationID != org || u.DeletedAt != nil {
		return identity.ErrUserNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	s.users[id] = u
	return nil
}

func (s *Store) TouchLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLoginAt = &at
		s.users[id] = u
	}
	return nil
}

func (s *Store) CreateInvitation(_ context.Context, inv *identity.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitations = append(s.invitations, *inv)
	return nil
}

// Invitations returns a copy, newest last.
func (s *Store) Invitations() []identity.Invitation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]identity.Invitation(nil), s.invitations...)
}

// ==== sessions ====

func (s *Store) Create(_ context.Context, sess *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *Store) FindActive(_ context.Context, userID, tokenHash string, now time.Time) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.TokenHash == tokenHash && sess.RevokedAt == nil && sess.ExpiresAt.After(now) {
			return &sess, nil
		}
	}
	return nil, identity.ErrSessionInvalid
}

func (s *Store) FindByRefresh(_ context.Context, userID, refreshHash string) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.RefreshTokenHash == refreshHash && sess.RevokedAt == nil {
			return &sess, nil
		}
	}
	return nil, identity.ErrSessionInvalid
}

func (s *Store) Rotate(_ context.Context, id, tokenHash, refreshHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return identity.ErrSessionInvalid
	}
	sess.TokenHash, sess.RefreshTokenHash, sess.ExpiresAt = tokenHash, refreshHash, expiresAt
	s.sessions[id] = sess
	return nil
}

func (s *Store) RevokeByToken(_ context.Context, tokenHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.TokenHash == tokenHash && sess.RevokedAt == nil {
			sess.RevokedAt = &at
			s.sessions[id] = sess
		}
	}
	return nil
}

func (s *Store) RevokeAllForUser(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.RevokedAt == nil {
			sess.RevokedAt = &at
			s.sessions[id] = sess
		}
	}
	return nil
}

// ==== audit ====

// Audit is the audit repository view of the store; its Save would collide with
// the report Save.
type Audit struct{ s *Store }

func (s *Store) Audit() Audit { return Audit{s} }

func (a Audit) Save(_ context.Context, e *audit.Entry) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.auditSeq++
	e.ID = a.s.auditSeq
	a.s.audit = append(a.s.audit, *e)
	return nil
}

func (a Audit) ListByOrganization(_ context.Context, org string, limit int) ([]*audit.Entry, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	out := make([]*audit.Entry, 0)
	for i := len(a.s.audit) - 1; i >= 0; i-- {
		e := a.s.audit[i]
		if e.OrganizationID != org {
			continue
		}
		out = append(out, &e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
