package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/application"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
	domain "github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/export/pdf"
	"github.com/bryanwahyu/automaton-assurance/internal/export/xlsx"
	"github.com/bryanwahyu/automaton-assurance/internal/render"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// PDFRenderer prints HTML to PDF.
type PDFRenderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// Service implements use-cases untuk saved reports. Every call is scoped to one organization.
type Service struct {
	Repo      domain.Repository
	Audit     audit.Repository
	Artifacts domain.ArtifactStore // nil when no archive is configured
	Views     *render.Renderer
	PDF       PDFRenderer
	Clock     application.Clock
	Log       *zap.Logger
	// OnExport is called once per produced export, by format.
	OnExport func(format string)
}

// Actor is the authenticated caller.
type Actor struct {
	UserID         string
	OrganizationID string
}

type SaveCommand struct {
	Project  assurance.ProjectData
	Report   assurance.AssuranceReport
	ViewMode domain.ViewMode
}

// Save persists a new report row. There is no update path.
func (s *Service) Save(ctx context.Context, actor Actor, cmd SaveCommand) (*domain.SavedReport, error) {
	stage := string(cmd.Project.Stage)
	if stage == "" {
		stage = string(assurance.StageInitiation)
	}
	r := &domain.SavedReport{
		ID:             domain.ReportID(uuid.NewString()),
		OrganizationID: actor.OrganizationID,
		UserID:         actor.UserID,
		ProjectName:    cmd.Project.Name,
		ProjectNumber:  cmd.Project.Number,
		ProjectStage:   stage,
		Report:         cmd.Report,
		Documents:      cmd.Project.DocumentSummaries(),
		ViewMode:       domain.ParseViewMode(string(cmd.ViewMode)),
		CreatedAt:      s.Clock.Now().UTC(),
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	s.record(ctx, actor, audit.ActionReportSaved, string(r.ID), map[string]string{"projectNumber": r.ProjectNumber})
	return r, nil
}

// List returns newest first. limit is clamped to [1, 200], default 50.
func (s *Service) List(ctx context.Context, org string, limit, offset int) ([]*domain.SavedReport, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, org, limit, offset)
}

func (s *Service) Get(ctx context.Context, org string, id domain.ReportID) (*domain.SavedReport, error) {
	return s.Repo.Get(ctx, org, id)
}

// Delete removes the row. Missing rows return domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, actor Actor, id domain.ReportID) error {
	if err := s.Repo.Delete(ctx, actor.OrganizationID, id); err != nil {
		return err
	}
	s.record(ctx, actor, audit.ActionReportDeleted, string(id), nil)
	return nil
}

func meta(r *domain.SavedReport, now time.Time) render.Meta {
	return render.Meta{
		ProjectName:   r.ProjectName,
		ProjectNumber: r.ProjectNumber,
		ProjectStage:  r.ProjectStage,
		Documents:     r.Documents,
		GeneratedAt:   now,
	}
}

// View renders the stored report as HTML in the requested mode.
func (s *Service) View(ctx context.Context, org string, id domain.ReportID, mode domain.ViewMode) ([]byte, error) {
	r, err := s.Repo.Get(ctx, org, id)
	if err != nil {
		return nil, err
	}
	return s.Views.HTML(mode, &r.Report, meta(r, s.Clock.Now()))
}

// Export is one produced file.
type Export struct {
	Format      string `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
	Key         string `json:"key,omitempty"`
	URL         string `json:"url,omitempty"`
}

func (s *Service) xlsxFor(r *domain.SavedReport) (*Export, error) {
	now := s.Clock.Now()
	data, err := xlsx.Build(xlsx.Input{
		Report:        &r.Report,
		ProjectName:   r.ProjectName,
		ProjectNumber: r.ProjectNumber,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	s.exported("xlsx")
	return &Export{Format: "xlsx", Filename: xlsx.Filename(r.ProjectNumber, now), ContentType: xlsx.ContentType, Data: data}, nil
}

func (s *Service) pdfFor(ctx context.Context, r *domain.SavedReport, mode domain.ViewMode) (*Export, error) {
	if s.PDF == nil {
		return nil, pdf.ErrDisabled
	}
	html, err := s.Views.HTML(mode, &r.Report, meta(r, s.Clock.Now()))
	if err != nil {
		return nil, err
	}
	data, err := s.PDF.Render(ctx, html)
	if err != nil {
		return nil, err
	}
	s.exported("pdf")
	return &Export{Format: "pdf", Filename: pdf.Filename(r.ProjectNumber), ContentType: pdf.ContentType, Data: data}, nil
}

// ExportXLSX builds the risk and control matrix workbook.
func (s *Service) ExportXLSX(ctx context.Context, org string, id domain.ReportID) (*Export, error) {
	r, err := s.Repo.Get(ctx, org, id)
	if err != nil {
		return nil, err
	}
	return s.xlsxFor(r)
}

// ExportPDF prints the chosen view. Returns pdf.ErrDisabled without a browser.
func (s *Service) ExportPDF(ctx context.Context, org string, id domain.ReportID, mode domain.ViewMode) (*Export, error) {
	r, err := s.Repo.Get(ctx, org, id)
	if err != nil {
		return nil, err
	}
	return s.pdfFor(ctx, r, mode)
}

// ErrArchiveDisabled means no artifact store is configured.
var ErrArchiveDisabled = errors.New("export archive is not configured")

// Archive uploads the workbook, plus the PDF when a browser is available,
// under <org>/<reportID>/<filename>.
func (s *Service) Archive(ctx context.Context, org string, id domain.ReportID, mode domain.ViewMode) ([]Export, error) {
	if s.Artifacts == nil {
		return nil, ErrArchiveDisabled
	}
	r, err := s.Repo.Get(ctx, org, id)
	if err != nil {
		return nil, err
	}

	exports := make([]*Export, 0, 2)
	x, err := s.xlsxFor(r)
	if err != nil {
		return nil, err
	}
	exports = append(exports, x)

	p, err := s.pdfFor(ctx, r, mode)
	switch {
	case err == nil:
		exports = append(exports, p)
	case errors.Is(err, pdf.ErrDisabled):
	default:
		return nil, err
	}

	out := make([]Export, 0, len(exports))
	for _, e := range exports {
		key := fmt.Sprintf("%s/%s/%s", org, id, e.Filename)
		url, err := s.Artifacts.Put(ctx, key, e.ContentType, e.Data)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", e.Filename, err)
		}
		e.Key, e.URL = key, url
		out = append(out, *e)
	}
	return out, nil
}

func (s *Service) exported(format string) {
	if s.OnExport != nil {
		s.OnExport(format)
	}
}

func (s *Service) record(ctx context.Context, actor Actor, action, resourceID string, details any) {
	application.Recorder{Repo: s.Audit, Clock: s.Clock, Log: s.Log}.Record(ctx, application.Event{
		OrganizationID: actor.OrganizationID,
		UserID:         actor.UserID,
		Action:         action,
		ResourceType:   "report",
		ResourceID:     resourceID,
		Details:        details,
	})
}
