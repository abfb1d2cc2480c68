package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateOrganization(ctx context.Context, o *domain.Organization) error {
	const q = `INSERT INTO organizations (id, name, slug, created_at) VALUES ($1,$2,$3,$4);`
	_, err := r.db.ExecContext(ctx, q, o.ID, o.Name, o.Slug, o.CreatedAt)
	return err
}

// CreateUser maps the email unique constraint to domain.ErrEmailTaken.
func (r *UserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	const q = `
INSERT INTO users
  (id, organization_id, email, password_hash, first_name, last_name,
   role, is_org_admin, is_super_admin, email_verified, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	var hash sql.NullString
	if u.PasswordHash != nil {
		hash = sql.NullString{String: *u.PasswordHash, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.OrganizationID, u.Email, hash, u.FirstName, u.LastName,
		string(u.Role), u.IsOrgAdmin, u.IsSuperAdmin, u.EmailVerified, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1);`, email).Scan(&exists)
	return exists, err
}

const userSelect = `
SELECT u.id, u.organization_id, o.name, o.slug, u.email, u.password_hash,
       u.first_name, u.last_name, u.role, u.is_org_admin, u.is_super_admin,
       u.email_verified, u.last_login_at, u.created_at
FROM users u
JOIN organizations o ON o.id = u.organization_id
WHERE u.deleted_at IS NULL`

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		hash      sql.NullString
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(
		&u.ID, &u.OrganizationID, &u.OrganizationName, &u.OrganizationSlug, &u.Email, &hash,
		&u.FirstName, &u.LastName, &role, &u.IsOrgAdmin, &u.IsSuperAdmin,
		&u.EmailVerified, &lastLogin, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	if hash.Valid {
		h := hash.String
		u.PasswordHash = &h
	}
	u.Role = domain.Role(role)
	u.LastLoginAt = timePtr(lastLogin)
	return &u, nil
}

func (r *UserRepository) one(ctx context.Context, q string, args ...any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, userSelect+` AND u.email=$1;`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, userSelect+` AND u.id=$1;`, id)
}

func (r *UserRepository) GetInOrganization(ctx context.Context, org, id string) (*domain.User, error) {
	return r.one(ctx, userSelect+` AND u.organization_id=$1 AND u.id=$2;`, org, id)
}

func (r *UserRepository) ListByOrganization(ctx context.Context, org string) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, userSelect+` AND u.organization_id=$1 ORDER BY u.created_at DESC;`, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update only touches the non-nil patch fields (COALESCE).
func (r *UserRepository) Update(ctx context.Context, org, id string, p domain.UserPatch) error {
	const q = `
UPDATE users SET
  first_name = COALESCE($3, first_name),
  last_name  = COALESCE($4, last_name),
  role       = COALESCE($5, role)
WHERE organization_id=$1 AND id=$2 AND deleted_at IS NULL;`
	var first, last, role sql.NullString
	if p.FirstName != nil {
		first = sql.NullString{String: *p.FirstName, Valid: true}
	}
	if p.LastName != nil {
		last = sql.NullString{String: *p.LastName, Valid: true}
	}
	if p.Role != nil {
		role = sql.NullString{String: string(*p.Role), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, q, org, id, first, last, role)
	return affectedOrNotFound(res, err)
}

func (r *UserRepository) SoftDelete(ctx context.Context, org, id string) error {
	const q = `UPDATE users SET deleted_at = now() WHERE organization_id=$1 AND id=$2 AND deleted_at IS NULL;`
	res, err := r.db.ExecContext(ctx, q, org, id)
	return affectedOrNotFound(res, err)
}

func (r *UserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at=$2 WHERE id=$1;`, id, at)
	return err
}

func (r *UserRepository) CreateInvitation(ctx context.Context, inv *domain.Invitation) error {
	const q = `
INSERT INTO invitations (id, organization_id, email, role, token, invited_by, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	_, err := r.db.ExecContext(ctx, q,
		inv.ID, inv.OrganizationID, inv.Email, string(inv.Role), inv.Token, inv.InvitedBy, inv.ExpiresAt,
	)
	return err
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
