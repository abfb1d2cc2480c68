package reports

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
	domain "github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/export/pdf"
	"github.com/bryanwahyu/automaton-assurance/internal/render"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[domain.ReportID]*domain.SavedReport
	err  error
}

func newMemRepo() *memRepo { return &memRepo{rows: map[domain.ReportID]*domain.SavedReport{}} }

func (m *memRepo) Save(_ context.Context, r *domain.SavedReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, org string, id domain.ReportID) (*domain.SavedReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.OrganizationID != org {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, org string, limit, offset int) ([]*domain.SavedReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SavedReport
	for _, r := range m.rows {
		if r.OrganizationID == org {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, org string, id domain.ReportID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.OrganizationID != org {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memAudit struct {
	entries []*audit.Entry
	err     error
}

func (a *memAudit) Save(_ context.Context, e *audit.Entry) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *memAudit) ListByOrganization(context.Context, string, int) ([]*audit.Entry, error) {
	return a.entries, nil
}

type memStore struct {
	keys  []string
	types []string
}

func (s *memStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	s.keys = append(s.keys, key)
	s.types = append(s.types, contentType)
	return "http://minio.local/exports/" + key, nil
}

type stubPDF struct{ html []byte }

func (p *stubPDF) Render(_ context.Context, html []byte) ([]byte, error) {
	p.html = html
	return []byte("%PDF-1.4"), nil
}

type tickClock struct{ t time.Time }

func (c *tickClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

var actor = Actor{UserID: "u-1", OrganizationID: "org-1"}

func newTestService(t *testing.T) (*Service, *memRepo, *memAudit) {
	t.Helper()
	views, err := render.New()
	require.NoError(t, err)
	repo, aud := newMemRepo(), &memAudit{}
	return &Service{
		Repo:  repo,
		Audit: aud,
		Views: views,
		Clock: &tickClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)},
	}, repo, aud
}

func saveCmd(number string) SaveCommand {
	return SaveCommand{
		Project: assurance.ProjectData{
			Name:   "Portal " + number,
			Number: number,
			Documents: []assurance.ProjectDocument{
				{ID: "d1", Name: "Business_Case_v2.txt", Category: assurance.CategoryBusinessCase, Size: "300 B", Content: "secret body"},
			},
		},
		Report: assurance.AssuranceReport{
			OverallScore: 70,
			GapAnalysis: []assurance.GapAnalysisItem{{Area: "Budget", Finding: "Over", Severity: assurance.SeverityHigh,
				Recommendation: "Reconcile the budget sheet with finance"}},
		},
		ViewMode: "bogus",
	}
}

func TestSave(t *testing.T) {
	svc, repo, aud := newTestService(t)
	ctx := audit.WithClient(context.Background(), audit.Client{IP: "10.0.0.1", UserAgent: "test"})

	r, err := svc.Save(ctx, actor, saveCmd("PRJ-1"))
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Initiation", r.ProjectStage)
	assert.Equal(t, domain.ViewDashboard, r.ViewMode)
	assert.Equal(t, []assurance.DocumentSummary{{ID: "d1", Name: "Business_Case_v2.txt", Category: "Business Case", Size: "300 B"}}, r.Documents)
	assert.Contains(t, repo.rows, r.ID)

	require.Len(t, aud.entries, 1)
	assert.Equal(t, audit.ActionReportSaved, aud.entries[0].Action)
	assert.Equal(t, "10.0.0.1", aud.entries[0].IPAddress)
	assert.JSONEq(t, `{"projectNumber":"PRJ-1"}`, aud.entries[0].DetailsJSON)
}

func TestSave_RepoErrorIsReturned(t *testing.T) {
	svc, repo, aud := newTestService(t)
	repo.err = errors.New("db down")

	_, err := svc.Save(context.Background(), actor, saveCmd("PRJ-1"))
	assert.EqualError(t, err, "save report: db down")
	assert.Empty(t, aud.entries)
}

func TestSave_AuditFailureDoesNotFailSave(t *testing.T) {
	svc, _, aud := newTestService(t)
	aud.err = errors.New("audit down")

	_, err := svc.Save(context.Background(), actor, saveCmd("PRJ-1"))
	assert.NoError(t, err)
}

func TestListNewestFirstAndDelete(t *testing.T) {
	svc, _, aud := newTestService(t)
	ctx := context.Background()

	first, err := svc.Save(ctx, actor, saveCmd("PRJ-1"))
	require.NoError(t, err)
	second, err := svc.Save(ctx, actor, saveCmd("PRJ-2"))
	require.NoError(t, err)
	_, err = svc.Save(ctx, Actor{UserID: "u-9", OrganizationID: "org-2"}, saveCmd("PRJ-X"))
	require.NoError(t, err)

	list, err := svc.List(ctx, "org-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, actor, first.ID))
	list, err = svc.List(ctx, "org-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = svc.Get(ctx, "org-1", first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, actor, first.ID), domain.ErrNotFound)
	assert.Equal(t, audit.ActionReportDeleted, aud.entries[len(aud.entries)-1].Action)
}

func TestGet_OtherOrganizationIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	r, err := svc.Save(context.Background(), actor, saveCmd("PRJ-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "org-2", r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestView(t *testing.T) {
	svc, _, _ := newTestService(t)
	r, err := svc.Save(context.Background(), actor, saveCmd("PRJ-1"))
	require.NoError(t, err)

	html, err := svc.View(context.Background(), "org-1", r.ID, domain.ViewProfessional)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Document Registry")
	assert.Contains(t, string(html), "Business_Case_v2.txt")
}

func TestExportXLSX(t *testing.T) {
	svc, _, _ := newTestService(t)
	var formats []string
	svc.OnExport = func(f string) { formats = append(formats, f) }
	r, err := svc.Save(context.Background(), actor, saveCmd("PRJ-1"))
	require.NoError(t, err)

	e, err := svc.ExportXLSX(context.Background(), "org-1", r.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^Risk_Control_Matrix_PRJ-1_2026-05-01\.xlsx$`, e.Filename)
	assert.NotEmpty(t, e.Data)
	assert.Equal(t, []string{"xlsx"}, formats)
}

func TestExportPDF_DisabledWithoutBrowser(t *testing.T) {
	svc, _, _ := newTestService(t)
	r, _ := svc.Save(context.Background(), actor, saveCmd("PRJ-1"))

	_, err := svc.ExportPDF(context.Background(), "org-1", r.ID, domain.ViewProfessional)
	assert.ErrorIs(t, err, pdf.ErrDisabled)
}

func TestArchive(t *testing.T) {
	svc, _, _ := newTestService(t)
	store, printer := &memStore{}, &stubPDF{}
	svc.Artifacts, svc.PDF = store, printer
	r, err := svc.Save(context.Background(), actor, saveCmd("PRJ-1"))
	require.NoError(t, err)

	out, err := svc.Archive(context.Background(), "org-1", r.ID, domain.ViewProfessional)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "xlsx", out[0].Format)
	assert.Equal(t, "org-1/"+string(r.ID)+"/AssurePro_Audit_PRJ-1.pdf", out[1].Key)
	assert.Equal(t, "http://minio.local/exports/"+out[1].Key, out[1].URL)
	assert.Equal(t, []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/pdf"}, store.types)
	assert.Contains(t, string(printer.html), "PROJECT ASSURANCE REPORT")
}

func TestArchive_WithoutStore(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Archive(context.Background(), "org-1", "x", domain.ViewDashboard)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestArchive_XLSXOnlyWhenPDFDisabled(t *testing.T) {
	svc, _, _ := newTestService(t)
	store := &memStore{}
	svc.Artifacts, svc.PDF = store, pdf.Disabled{}
	r, _ := svc.Save(context.Background(), actor, saveCmd("PRJ-1"))

	_, err := svc.ExportPDF(context.Background(), "org-1", r.ID, domain.ViewDashboard)
	assert.ErrorIs(t, err, pdf.ErrDisabled)

	out, err := svc.Archive(context.Background(), "org-1", r.ID, domain.ViewDashboard)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Len(t, store.keys, 1)
}

func TestArchive_KeyStaysThreeLevels(t *testing.T) {
	svc, _, _ := newTestService(t)
	store := &memStore{}
	svc.Artifacts, svc.PDF = store, &stubPDF{}
	r, err := svc.Save(context.Background(), actor, saveCmd("../PRJ/1"))
	require.NoError(t, err)

	out, err := svc.Archive(context.Background(), "org-1", r.ID, domain.ViewDashboard)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, e := range out {
		assert.Len(t, strings.Split(e.Key, "/"), 3, e.Key)
	}
	assert.Equal(t, "org-1/"+string(r.ID)+"/AssurePro_Audit_.._PRJ_1.pdf", out[1].Key)
}
