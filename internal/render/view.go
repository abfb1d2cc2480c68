// Package render turns a report into the dashboard and professional HTML views.
package render

import (
	"time"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

// Meta is the project identity shown alongside a report.
type Meta struct {
	ProjectName   string
	ProjectNumber string
	ProjectStage  string
	Documents     []assurance.DocumentSummary
	GeneratedAt   time.Time
}

type SeveritySlice struct {
	Label   string
	Count   int
	Percent float64
}

type BenefitBar struct {
	Label string
	Name  string
	Score float64
}

type DashboardView struct {
	Meta
	Score        float64
	ScoreTone    string
	Summary      string
	Benefits     assurance.BenefitsSummary
	Framework    assurance.FrameworkAlignment
	Financial    assurance.FinancialAssurance
	ActiveGaps   int
	Severity     []SeveritySlice
	BenefitBars  []BenefitBar
	Gaps         []assurance.GapAnalysisItem
	BenefitItems []assurance.BenefitItem
	Questions    []assurance.CriticalQuestion
}

type ProfessionalView struct {
	Meta
	GeneratedLabel string
	Score          float64
	ScoreTone      string
	Summary        string
	Benefits       assurance.BenefitsSummary
	Framework      assurance.FrameworkAlignment
	Financial      assurance.FinancialAssurance
	Gaps           []assurance.GapAnalysisItem
	BenefitItems   []assurance.BenefitItem
	Questions      []assurance.CriticalQuestion
	Counts         assurance.SeverityCounts
}

// Tone buckets a 0-100 score: above 75 good, above 50 warn, otherwise bad.
func Tone(score float64) string {
	switch {
	case score > 75:
		return "good"
	case score > 50:
		return "warn"
	default:
		return "bad"
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// shortName mirrors the chart axis labels: names longer than 12 characters are cut to 10 plus "...".
func shortName(s string) string {
	r := []rune(s)
	if len(r) > 12 {
		return string(r[:10]) + "..."
	}
	return s
}

func Dashboard(r *assurance.AssuranceReport, m Meta) DashboardView {
	c := r.Counts()
	pct := func(n int) float64 {
		if c.Total == 0 {
			return 0
		}
		return float64(n) / float64(c.Total) * 100
	}

	bars := make([]BenefitBar, 0, len(r.BenefitsRealisation))
	for _, b := range r.BenefitsRealisation {
		bars = append(bars, BenefitBar{Label: shortName(b.Name), Name: b.Name, Score: clamp(b.ReadinessScore)})
	}

	gaps := make([]assurance.GapAnalysisItem, len(r.GapAnalysis))
	for i, g := range r.GapAnalysis {
		g.Severity = assurance.NormalizeSeverity(string(g.Severity))
		gaps[i] = g
	}

	return DashboardView{
		Meta:       m,
		Score:      r.OverallScore,
		ScoreTone:  Tone(r.OverallScore),
		Summary:    r.Summary,
		Benefits:   r.BenefitsSummary,
		Framework:  r.FrameworkAlignment,
		Financial:  r.FinancialAssurance,
		ActiveGaps: len(r.GapAnalysis),
		Severity: []SeveritySlice{
			{"High", c.High, pct(c.High)},
			{"Medium", c.Medium, pct(c.Medium)},
			{"Low", c.Low, pct(c.Low)},
		},
		BenefitBars:  bars,
		Gaps:         gaps,
		BenefitItems: r.BenefitsRealisation,
		Questions:    r.CriticalQuestions,
	}
}

// Professional builds the print layout. The generation stamp comes from m.GeneratedAt.
func Professional(r *assurance.AssuranceReport, m Meta) ProfessionalView {
	gaps := make([]assurance.GapAnalysisItem, len(r.GapAnalysis))
	for i, g := range r.GapAnalysis {
		g.Severity = assurance.NormalizeSeverity(string(g.Severity))
		gaps[i] = g
	}
	return ProfessionalView{
		Meta:           m,
		GeneratedLabel: m.GeneratedAt.Format("January 2, 2006 at 3:04 PM MST"),
		Score:          r.OverallScore,
		ScoreTone:      Tone(r.OverallScore),
		Summary:        r.Summary,
		Benefits:       r.BenefitsSummary,
		Framework:      r.FrameworkAlignment,
		Financial:      r.FinancialAssurance,
		Gaps:           gaps,
		BenefitItems:   r.BenefitsRealisation,
		Questions:      r.CriticalQuestions,
		Counts:         r.Counts(),
	}
}
