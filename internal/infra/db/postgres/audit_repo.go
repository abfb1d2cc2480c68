package postgres

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Save(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO audit_log
  (organization_id, user_id, action, resource_type, resource_id, details, ip_address, user_agent, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id;`
	var details any
	if e.DetailsJSON != "" {
		details = e.DetailsJSON
	}
	return r.db.QueryRowContext(ctx, q,
		nullString(e.OrganizationID), nullString(e.UserID), e.Action,
		nullString(e.ResourceType), nullString(e.ResourceID), details,
		nullString(e.IPAddress), nullString(e.UserAgent), e.CreatedAt,
	).Scan(&e.ID)
}

// ListByOrganization returns the newest entries first.
func (r *AuditRepository) ListByOrganization(ctx context.Context, org string, limit int) ([]*domain.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, organization_id, user_id, action, resource_type, resource_id,
       details, ip_address, user_agent, created_at
FROM audit_log
WHERE organization_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, org, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Entry, 0)
	for rows.Next() {
		var (
			e                         domain.Entry
			orgID, userID, rtype, rid sql.NullString
			details, ip, ua           sql.NullString
		)
		if err := rows.Scan(&e.ID, &orgID, &userID, &e.Action, &rtype, &rid, &details, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OrganizationID, e.UserID = orgID.String, userID.String
		e.ResourceType, e.ResourceID = rtype.String, rid.String
		e.DetailsJSON, e.IPAddress, e.UserAgent = details.String, ip.String, ua.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
