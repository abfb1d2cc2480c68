// Package riskmatrix projects an assurance report onto a risk register and a
// control matrix. Everything here is a pure function of the report and the clock.
package riskmatrix

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-assurance/internal/application"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

// DateLayout is the en-AU short date used for target dates and the cover sheet.
const DateLayout = "02/01/2006"

const (
	defaultOwner      = "To Be Assigned"
	defaultEvidence   = "To Be Documented"
	statusOpen        = "Open"
	statusToImplement = "To Be Implemented"
)

type RiskMatrixRow struct {
	RiskID               string
	RiskCategory         string
	RiskDescription      string
	Observation          string
	Likelihood           string
	Impact               string
	RiskRating           string
	ExistingControls     string
	ControlEffectiveness string
	ResidualRisk         string
	RecommendedActions   string
	Owner                string
	TargetDate           string
	Status               string
}

type ControlMatrixRow struct {
	ControlID          string
	RiskID             string
	ControlDescription string
	ControlType        string
	ControlOwner       string
	Frequency          string
	Effectiveness      string
	Evidence           string
	Gaps               string
	Recommendations    string
	Status             string
}

// severity profile, keyed by lower-cased severity.
// The spreadsheet keeps a separate Critical rating; the dashboard counts
// critical as High (assurance.NormalizeSeverity). Both are intended.
type profile struct {
	rating, likelihood, impact, effectiveness string
	days                                      int
}

var profiles = map[string]profile{
	"critical": {"Critical", "Almost Certain", "Severe", "Ineffective", 30},
	"high":     {"High", "Likely", "Major", "Partially Effective", 60},
	"medium":   {"Medium", "Possible", "Moderate", "Generally Effective", 90},
	"low":      {"Low", "Unlikely", "Minor", "Effective", 120},
}

func lookup(severity assurance.Severity) profile {
	if p, ok := profiles[strings.ToLower(strings.TrimSpace(string(severity)))]; ok {
		return p
	}
	return profiles["medium"]
}

// Rating maps a severity to its risk rating; unknown values are Medium.
func Rating(s assurance.Severity) string { return lookup(s).rating }

func Likelihood(s assurance.Severity) string { return lookup(s).likelihood }

func Impact(s assurance.Severity) string { return lookup(s).impact }

func Effectiveness(s assurance.Severity) string { return lookup(s).effectiveness }

// TargetDays is the remediation window for the severity.
func TargetDays(s assurance.Severity) int { return lookup(s).days }

// RiskID formats the 1-based gap position as R001, R002, ...
func RiskID(index int) string { return fmt.Sprintf("R%03d", index+1) }

// Builder derives target dates from Clock.
type Builder struct {
	Clock application.Clock
}

func New(clock application.Clock) Builder {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return Builder{Clock: clock}
}

// Risks returns one row per gap, in report order.
func (b Builder) Risks(r *assurance.AssuranceReport) []RiskMatrixRow {
	now := b.Clock.Now()
	rows := make([]RiskMatrixRow, 0, len(r.GapAnalysis))
	for i, gap := range r.GapAnalysis {
		p := lookup(gap.Severity)
		rows = append(rows, RiskMatrixRow{
			RiskID:               RiskID(i),
			RiskCategory:         gap.Area,
			RiskDescription:      gap.Finding,
			Observation:          gap.Observation,
			Likelihood:           p.likelihood,
			Impact:               p.impact,
			RiskRating:           p.rating,
			ExistingControls:     ExistingControls(gap.Observation),
			ControlEffectiveness: p.effectiveness,
			ResidualRisk:         p.rating,
			RecommendedActions:   gap.Recommendation,
			Owner:                defaultOwner,
			TargetDate:           now.Add(time.Duration(p.days) * 24 * time.Hour).Format(DateLayout),
			Status:               statusOpen,
		})
	}
	return rows
}

// Controls returns the controls of every gap, grouped by risk in report order.
func (b Builder) Controls(r *assurance.AssuranceReport) []ControlMatrixRow {
	var rows []ControlMatrixRow
	for i, gap := range r.GapAnalysis {
		riskID := RiskID(i)
		for n, desc := range SplitControls(gap.Recommendation) {
			rows = append(rows, ControlMatrixRow{
				ControlID:          fmt.Sprintf("%s-C%d", riskID, n+1),
				RiskID:             riskID,
				ControlDescription: desc,
				ControlType:        ControlType(desc),
				ControlOwner:       defaultOwner,
				Frequency:          Frequency(desc),
				Effectiveness:      Effectiveness(gap.Severity),
				Evidence:           defaultEvidence,
				Gaps:               gap.Finding,
				Recommendations:    gap.Recommendation,
				Status:             statusToImplement,
			})
		}
	}
	return rows
}

// ExistingControls is a keyword heuristic over the observation text.
func ExistingControls(observation string) string {
	o := strings.ToLower(observation)
	if strings.Contains(o, "control") || strings.Contains(o, "process") || strings.Contains(o, "procedure") {
		return "Existing controls identified in documentation"
	}
	return "Limited or no formal controls documented"
}

var sentenceSplit = regexp.MustCompile(`[.;]\s+`)

// SplitControls breaks a recommendation into candidate controls. Fragments of
// ten characters or fewer are dropped. This is a heuristic, not sentence parsing.
func SplitControls(recommendation string) []string {
	var out []string
	for _, frag := range sentenceSplit.Split(recommendation, -1) {
		if len(frag) > 10 {
			out = append(out, strings.TrimSpace(frag))
		}
	}
	return out
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ControlType classifies a control description by keyword. Default Preventive.
func ControlType(desc string) string {
	d := strings.ToLower(desc)
	switch {
	case containsAny(d, "prevent", "block", "restrict"):
		return "Preventive"
	case containsAny(d, "detect", "monitor", "review"):
		return "Detective"
	case containsAny(d, "correct", "fix", "remediate"):
		return "Corrective"
	}
	return "Preventive"
}

// Frequency picks an operating frequency by keyword. Default As Required.
func Frequency(desc string) string {
	d := strings.ToLower(desc)
	switch {
	case containsAny(d, "continuous", "real-time", "ongoing"):
		return "Continuous"
	case strings.Contains(d, "daily"):
		return "Daily"
	case strings.Contains(d, "weekly"):
		return "Weekly"
	case containsAny(d, "monthly", "regular"):
		return "Monthly"
	case strings.Contains(d, "quarterly"):
		return "Quarterly"
	}
	return "As Required"
}
