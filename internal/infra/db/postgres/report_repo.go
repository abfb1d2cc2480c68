package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	domain "github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, organization_id, user_id, project_name, project_number,
       project_stage, report, documents, view_mode, created_at`

// Save inserts a report. Reports have no update path.
func (r *ReportRepository) Save(ctx context.Context, rep *domain.SavedReport) error {
	const q = `
INSERT INTO reports
  (id, organization_id, user_id, project_name, project_number, project_stage,
   report, documents, view_mode, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	reportJSON, err := json.Marshal(rep.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	docs := rep.Documents
	if docs == nil {
		docs = []assurance.DocumentSummary{}
	}
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q,
		string(rep.ID), rep.OrganizationID, nullString(rep.UserID),
		rep.ProjectName, rep.ProjectNumber, rep.ProjectStage,
		reportJSON, docsJSON, string(rep.ViewMode), createdAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*domain.SavedReport, error) {
	var (
		rep                domain.SavedReport
		userID             sql.NullString
		reportRaw, docsRaw []byte
		viewMode           string
	)
	if err := row.Scan(
		&rep.ID, &rep.OrganizationID, &userID, &rep.ProjectName, &rep.ProjectNumber,
		&rep.ProjectStage, &reportRaw, &docsRaw, &viewMode, &rep.CreatedAt,
	); err != nil {
		return nil, err
	}
	rep.UserID = userID.String
	rep.ViewMode = domain.ParseViewMode(viewMode)
	if err := json.Unmarshal(reportRaw, &rep.Report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", rep.ID, err)
	}
	if len(docsRaw) > 0 {
		if err := json.Unmarshal(docsRaw, &rep.Documents); err != nil {
			return nil, fmt.Errorf("decode documents %s: %w", rep.ID, err)
		}
	}
	return &rep, nil
}

// Get by ID + organization
func (r *ReportRepository) Get(ctx context.Context, org string, id domain.ReportID) (*domain.SavedReport, error) {
	q := `SELECT ` + reportColumns + `
FROM reports
WHERE organization_id=$1 AND id=$2
LIMIT 1;`
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, org, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rep, err
}

// List returns a page of reports ordered by created_at desc
func (r *ReportRepository) List(ctx context.Context, org string, limit, offset int) ([]*domain.SavedReport, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + reportColumns + `
FROM reports
WHERE organization_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
	rows, err := r.db.QueryContext(ctx, q, org, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.SavedReport, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *ReportRepository) Delete(ctx context.Context, org string, id domain.ReportID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE organization_id=$1 AND id=$2;`, org, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
