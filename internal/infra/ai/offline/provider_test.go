package offline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/ai"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/ai/prompt"
)

func sampleProject() assurance.ProjectData {
	return assurance.ProjectData{
		Name:       "Core Banking Uplift",
		Number:     "PRJ-001",
		Stage:      assurance.StageExecution,
		FocusAreas: []assurance.FocusArea{assurance.FocusBudget, assurance.FocusRisk},
		Documents: []assurance.ProjectDocument{
			{Name: "Business_Case_v2.txt", Category: assurance.CategoryBusinessCase, Content: "Objective: modernise core platform.\nTotal Budget: $1.2M\nThe solution will save $300k annually in licensing."},
			{Name: "Project_Budget_Sheet.csv", Category: assurance.CategoryBudget, Content: "Item,Cost\nSoftware Licensing,$400000\nConsulting,$900000\nContingency,$50000\nTotal Cost,$1350000"},
		},
	}
}

func TestParseMoney(t *testing.T) {
	cases := map[string]float64{
		"$1.2M":      1200000,
		"$300k":      300000,
		"$1,350,000": 1350000,
		"$ 50000":    50000,
		"cost $2B":   2000000000,
	}
	for in, want := range cases {
		got, ok := parseMoney(in)
		require.True(t, ok, in)
		assert.InDelta(t, want, got, 0.001, in)
	}
	_, ok := parseMoney("no amount")
	assert.False(t, ok)
}

func TestAssess_BudgetDiscrepancy(t *testing.T) {
	r := Assess(prompt.UserPrompt(sampleProject()))

	require.NotEmpty(t, r.GapAnalysis)
	gap := r.GapAnalysis[0]
	assert.Equal(t, assurance.SeverityHigh, gap.Severity)
	assert.Equal(t, string(assurance.FocusBudget), gap.Area)
	assert.Contains(t, gap.Observation, "Business_Case_v2.txt")
	assert.Contains(t, gap.Observation, "$1,200,000")
	assert.Contains(t, gap.Observation, "$1,350,000")

	// no risk register supplied
	require.Len(t, r.GapAnalysis, 2)
	assert.Equal(t, string(assurance.FocusRisk), r.GapAnalysis[1].Area)
	assert.Equal(t, assurance.SeverityMedium, r.GapAnalysis[1].Severity)

	require.Len(t, r.BenefitsRealisation, 1)
	assert.Equal(t, "$300,000", r.BenefitsRealisation[0].FinancialValue)
	assert.Equal(t, float64(100-15-8), r.OverallScore)
	assert.NotEmpty(t, r.CriticalQuestions)
}

func TestAssess_ReconciledBudget(t *testing.T) {
	p := sampleProject()
	p.FocusAreas = []assurance.FocusArea{assurance.FocusBudget}
	p.Documents[1].Content = "Total Cost,$1200000"

	r := Assess(prompt.UserPrompt(p))

	require.Len(t, r.GapAnalysis, 1)
	assert.Equal(t, assurance.SeverityLow, r.GapAnalysis[0].Severity)
	assert.Equal(t, "Budget sheet reconciles with the business case.", r.FinancialAssurance.VarianceAnalysis)
}

func TestComplete_ReturnsReportJSON(t *testing.T) {
	out, err := New().Complete(context.Background(), ai.CompletionRequest{Prompt: prompt.UserPrompt(sampleProject())})
	require.NoError(t, err)

	var r assurance.AssuranceReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 2, r.Counts().Total)
}

func TestComplete_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Complete(ctx, ai.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
