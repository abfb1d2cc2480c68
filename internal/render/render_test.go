package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
)

func sample() (*assurance.AssuranceReport, Meta) {
	r := &assurance.AssuranceReport{
		OverallScore: 62,
		Summary:      "Budget <does not> reconcile.",
		GapAnalysis: []assurance.GapAnalysisItem{
			{Area: "Budget", Finding: "Budget discrepancy", Severity: assurance.SeverityHigh, Recommendation: "Reconcile"},
			{Area: "Schedule", Finding: "Slippage", Severity: assurance.SeverityMedium},
			{Area: "Risk", Finding: "Stale register", Severity: "Critical"},
			{Area: "Docs", Finding: "Typos", Severity: assurance.SeverityLow},
		},
		BenefitsRealisation: []assurance.BenefitItem{
			{Name: "Hosting cost reduction", ReadinessScore: 140},
			{Name: "NPS uplift", ReadinessScore: 35},
		},
		CriticalQuestions: []assurance.CriticalQuestion{{Question: "Is the budget approved?", TargetRole: "CFO"}},
	}
	m := Meta{
		ProjectName:   "Customer Portal",
		ProjectNumber: "PRJ-001",
		ProjectStage:  "Execution",
		Documents:     []assurance.DocumentSummary{{Name: "Business_Case_v2.txt", Category: "Business Case", Size: "1.2 KB"}},
		GeneratedAt:   time.Date(2026, 1, 31, 16, 34, 0, 0, time.UTC),
	}
	return r, m
}

func TestTone(t *testing.T) {
	assert.Equal(t, "good", Tone(76))
	assert.Equal(t, "warn", Tone(75))
	assert.Equal(t, "warn", Tone(51))
	assert.Equal(t, "bad", Tone(50))
}

func TestDashboardView(t *testing.T) {
	r, m := sample()
	v := Dashboard(r, m)

	assert.Equal(t, "warn", v.ScoreTone)
	assert.Equal(t, 4, v.ActiveGaps)
	assert.Equal(t, []SeveritySlice{
		{"High", 2, 50},
		{"Medium", 1, 25},
		{"Low", 1, 25},
	}, v.Severity)
	assert.Equal(t, assurance.SeverityHigh, v.Gaps[2].Severity)
	require.Len(t, v.BenefitBars, 2)
	assert.Equal(t, BenefitBar{Label: "Hosting co...", Name: "Hosting cost reduction", Score: 100}, v.BenefitBars[0])
	assert.Equal(t, "NPS uplift", v.BenefitBars[1].Label)
	// source report untouched
	assert.Equal(t, assurance.Severity("Critical"), r.GapAnalysis[2].Severity)
}

func TestDashboardView_EmptyReport(t *testing.T) {
	v := Dashboard(&assurance.AssuranceReport{}, Meta{})
	for _, s := range v.Severity {
		assert.Zero(t, s.Percent)
	}
}

func TestProfessionalView(t *testing.T) {
	r, m := sample()
	v := Professional(r, m)
	assert.Equal(t, "January 31, 2026 at 4:34 PM UTC", v.GeneratedLabel)
	assert.Equal(t, assurance.SeverityCounts{High: 2, Medium: 1, Low: 1, Total: 4}, v.Counts)
}

func TestRender(t *testing.T) {
	rd, err := New()
	require.NoError(t, err)
	r, m := sample()

	dash, err := rd.HTML(reports.ViewDashboard, r, m)
	require.NoError(t, err)
	html := string(dash)
	assert.Contains(t, html, "Customer Portal")
	assert.Contains(t, html, `<div class="score warn" id="score">62%</div>`)
	assert.Contains(t, html, "Budget &lt;does not&gt; reconcile.")
	assert.Contains(t, html, "Is the budget approved?")
	assert.Contains(t, html, "width: 100%")

	prof, err := rd.HTML(reports.ViewProfessional, r, m)
	require.NoError(t, err)
	html = string(prof)
	assert.Contains(t, html, `<span id="generated">January 31, 2026 at 4:34 PM UTC</span>`)
	assert.Contains(t, html, "<td>1</td><td>Business_Case_v2.txt</td><td>Business Case</td><td>1.2 KB</td>")
	// one block per gap and per benefit
	assert.Equal(t, len(r.GapAnalysis)+len(r.BenefitsRealisation), strings.Count(html, `class="finding"`))
}
