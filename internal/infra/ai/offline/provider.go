// Package offline is a deterministic assessment provider used in development and tests.
// It reads the artifacts back out of the user prompt and applies a handful of heuristics.
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/ai"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

type Provider struct{}

func New() *Provider { return &Provider{} }

func (*Provider) Name() string { return "offline" }

type artifact struct {
	Name     string
	Category string
	Content  string
}

var (
	artifactRe = regexp.MustCompile(`(?s)--- \[ARTIFACT START\] ---\nFILENAME: (.*?)\nCATEGORY: (.*?)\nCONTENT:\n(.*?)\n--- \[ARTIFACT END\] ---`)
	focusRe    = regexp.MustCompile(`(?m)^- Audit Focus: (.*)$`)
	nameRe     = regexp.MustCompile(`(?m)^- Name: (.*)$`)
	moneyRe    = regexp.MustCompile(`\$\s?([0-9][0-9,]*(?:\.[0-9]+)?)\s*([kKmMbB])?\b`)
)

// focus area -> categories that count as evidence for it
var evidence = map[assurance.FocusArea][]string{
	assurance.FocusBudget:       {assurance.CategoryBudget, assurance.CategoryBusinessCase},
	assurance.FocusSchedule:     {assurance.CategoryPlan, assurance.CategoryStatusReport},
	assurance.FocusRequirements: {assurance.CategoryRequirement},
	assurance.FocusGovernance:   {assurance.CategoryStatusReport, assurance.CategoryPlan},
	assurance.FocusRisk:         {assurance.CategoryRiskRegister},
	assurance.FocusResources:    {assurance.CategoryPlan, assurance.CategoryBudget},
	assurance.FocusArchitecture: {assurance.CategoryArchitecture, assurance.CategoryDesign},
	assurance.FocusBenefits:     {assurance.CategoryBusinessCase},
}

// Complete returns a report JSON string in the same shape a remote model would produce.
func (p *Provider) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	report := Assess(req.Prompt)
	b, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ai.ErrProvider, err)
	}
	return string(b), nil
}

// Assess builds a report from the artifacts embedded in prompt.
func Assess(prompt string) assurance.AssuranceReport {
	docs := parseArtifacts(prompt)
	focus := parseFocus(prompt)

	var gaps []assurance.GapAnalysisItem
	add := func(sev assurance.Severity, area, observation, finding, rec string, questions ...string) {
		gaps = append(gaps, assurance.GapAnalysisItem{
			Area:             area,
			Observation:      observation,
			Finding:          finding,
			Severity:         sev,
			Recommendation:   rec,
			LeadingQuestions: questions,
		})
	}

	caseDoc, caseTotal, caseOK := totalFor(docs, assurance.CategoryBusinessCase, "budget", "total")
	budgetDoc, budgetTotal, budgetOK := totalFor(docs, assurance.CategoryBudget, "total")
	var financial assurance.FinancialAssurance
	financial.RiskScore = 20

	if caseOK && budgetOK {
		diff := budgetTotal - caseTotal
		pct := diff / caseTotal * 100
		financial.BudgetStatus = fmt.Sprintf("Business case budget %s, budget sheet total %s", money(caseTotal), money(budgetTotal))
		if math.Abs(pct) > 1 {
			add(assurance.SeverityHigh, string(assurance.FocusBudget),
				fmt.Sprintf("Based on analysis of %s, which states a total budget of %s, and %s, which totals %s.", caseDoc, money(caseTotal), budgetDoc, money(budgetTotal)),
				fmt.Sprintf("Budget discrepancy: the cost baseline differs from the approved business case by %s (%.1f%%).", money(math.Abs(diff)), pct),
				"Reconcile the budget sheet with the business case and re-baseline through the steering committee within two weeks.",
				"Which figure was approved by the investment committee?",
				"Where is the variance funded from if the budget sheet is correct?",
			)
			financial.VarianceAnalysis = fmt.Sprintf("Budget sheet exceeds business case by %.1f%%.", pct)
			financial.RiskScore = 70
		} else {
			financial.VarianceAnalysis = "Budget sheet reconciles with the business case."
		}
	} else {
		financial.BudgetStatus = "Insufficient financial artifacts to reconcile budget."
		financial.VarianceAnalysis = "Not assessed."
		financial.RiskScore = 50
	}

	present := map[string]bool{}
	for _, d := range docs {
		present[d.Category] = true
	}
	for _, f := range focus {
		cats, ok := evidence[f]
		if !ok {
			continue
		}
		found := false
		for _, c := range cats {
			if present[c] {
				found = true
				break
			}
		}
		if !found {
			add(assurance.SeverityMedium, string(f),
				fmt.Sprintf("No %s artifact was supplied for review.", strings.Join(cats, " or ")),
				fmt.Sprintf("%s cannot be assessed without supporting evidence.", f),
				fmt.Sprintf("Provide the current %s for the next assurance checkpoint.", strings.ToLower(cats[0])),
				"Who owns this artifact and when was it last updated?",
			)
		}
	}

	if len(gaps) == 0 {
		add(assurance.SeverityLow, "Governance & Reporting",
			fmt.Sprintf("Reviewed %d artifact(s); no inconsistencies were detected by automated checks.", len(docs)),
			"Automated checks are limited; a manual review is still required.",
			"Schedule a manual assurance review with the PMO.",
		)
	}

	benefits := findBenefits(docs)
	var planned float64
	for _, b := range benefits {
		if v, ok := parseMoney(b.FinancialValue); ok {
			planned += v
		}
	}

	report := assurance.AssuranceReport{
		BenefitsSummary: assurance.BenefitsSummary{
			TotalPlannedValue:    money(planned),
			ProjectedAnnualValue: money(planned) + " annually",
			BenefitsCount:        len(benefits),
			RealizationOutlook:   "Benefits are stated but owners and baselines are not documented.",
		},
		GapAnalysis:         gaps,
		BenefitsRealisation: benefits,
		FrameworkAlignment: assurance.FrameworkAlignment{
			Framework:      "PRINCE2",
			AlignmentScore: float64(50 + 5*len(present)),
			Notes:          "Alignment estimated from the artifact set supplied.",
		},
		FinancialAssurance: financial,
	}
	if len(benefits) == 0 {
		report.BenefitsSummary.RealizationOutlook = "No quantified benefits were found in the artifacts."
	}

	c := report.Counts()
	score := 100 - 15*c.High - 8*c.Medium - 3*c.Low
	if score < 0 {
		score = 0
	}
	report.OverallScore = float64(score)
	report.Summary = fmt.Sprintf("%s was assessed against %d artifact(s). %d high, %d medium and %d low severity findings were raised.",
		projectName(prompt), len(docs), c.High, c.Medium, c.Low)
	if c.High > 0 {
		report.CriticalQuestions = append(report.CriticalQuestions, assurance.CriticalQuestion{
			Question:   "Is the project still viable at the reconciled cost?",
			Context:    gaps[0].Finding,
			TargetRole: "CFO",
		})
	}
	return report
}

func parseArtifacts(prompt string) []artifact {
	var out []artifact
	for _, m := range artifactRe.FindAllStringSubmatch(prompt, -1) {
		out = append(out, artifact{Name: m[1], Category: m[2], Content: m[3]})
	}
	return out
}

func parseFocus(prompt string) []assurance.FocusArea {
	m := focusRe.FindStringSubmatch(prompt)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return nil
	}
	var out []assurance.FocusArea
	for _, f := range strings.Split(m[1], ", ") {
		out = append(out, assurance.FocusArea(strings.TrimSpace(f)))
	}
	return out
}

func projectName(prompt string) string {
	if m := nameRe.FindStringSubmatch(prompt); m != nil && m[1] != "" {
		return m[1]
	}
	return "The project"
}

// totalFor returns the largest amount on a line containing one of keywords,
// searched in the first artifact of the given category that has one.
func totalFor(docs []artifact, category string, keywords ...string) (string, float64, bool) {
	for _, d := range docs {
		if d.Category != category {
			continue
		}
		best, found := 0.0, false
		for _, line := range strings.Split(d.Content, "\n") {
			lower := strings.ToLower(line)
			hit := false
			for _, k := range keywords {
				if strings.Contains(lower, k) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
			for _, m := range moneyRe.FindAllString(line, -1) {
				if v, ok := parseMoney(m); ok && v > best {
					best, found = v, true
				}
			}
		}
		if found {
			return d.Name, best, true
		}
	}
	return "", 0, false
}

func findBenefits(docs []artifact) []assurance.BenefitItem {
	var out []assurance.BenefitItem
	for _, d := range docs {
		if d.Category != assurance.CategoryBusinessCase {
			continue
		}
		for _, line := range strings.Split(d.Content, "\n") {
			lower := strings.ToLower(line)
			if !strings.Contains(lower, "save") && !strings.Contains(lower, "saving") {
				continue
			}
			m := moneyRe.FindString(line)
			v, ok := parseMoney(m)
			if !ok {
				continue
			}
			out = append(out, assurance.BenefitItem{
				Name:           "Cost savings",
				Category:       assurance.BenefitFinancial,
				Description:    strings.TrimSpace(line),
				Observation:    fmt.Sprintf("Stated in %s.", d.Name),
				Baseline:       "Not documented",
				Target:         money(v) + " annually",
				Metric:         "Annual operating cost",
				Owner:          "Not assigned",
				FinancialValue: money(v),
				ReadinessScore: 40,
			})
		}
	}
	return out
}

// parseMoney understands "$1.2M", "$300k" and "$1,350,000".
func parseMoney(s string) (float64, bool) {
	m := moneyRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k":
		v *= 1e3
	case "m":
		v *= 1e6
	case "b":
		v *= 1e9
	}
	return v, true
}

func money(v float64) string {
	return "$" + humanize.Commaf(math.Round(v))
}
