package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

func sampleInput() Input {
	return Input{
		ProjectName:   "Customer Portal",
		ProjectNumber: "PRJ-001",
		Now:           time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Report: &assurance.AssuranceReport{
			OverallScore: 68,
			GapAnalysis: []assurance.GapAnalysisItem{
				{Area: "Budget & Cost Management", Finding: "Budget discrepancy", Observation: "Budget sheet exceeds case", Severity: assurance.SeverityHigh,
					Recommendation: "Reconcile the budget with finance. Monitor spend weekly against baseline"},
				{Area: "Governance & Reporting", Finding: "No RACI", Observation: "Approval process undocumented", Severity: assurance.SeverityLow,
					Recommendation: "Publish a RACI for the steering committee"},
			},
		},
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Risk_Control_Matrix_PRJ-001_2026-02-03.xlsx", Filename("PRJ-001", sampleInput().Now))
	assert.Equal(t, "Risk_Control_Matrix_org_PRJ_1_2026-02-03.xlsx", Filename("org/PRJ 1", sampleInput().Now))
}

func TestBuild_Sheets(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{SheetCover, SheetRisks, SheetControls, SheetSummary}, f.GetSheetList())

	cover, err := f.GetRows(SheetCover)
	require.NoError(t, err)
	assert.Equal(t, "RISK AND CONTROL MATRIX", cover[0][0])
	assert.Equal(t, []string{"Project Number:", "PRJ-001"}, cover[3])
	assert.Equal(t, []string{"Report Date:", "03/02/2026"}, cover[4])
	assert.Equal(t, []string{"Overall Risk Score:", "68%"}, cover[5])
}

func TestBuild_RiskRegister(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)
	f := open(t, data)

	rows, err := f.GetRows(SheetRisks)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Risk ID", rows[0][0])
	assert.Equal(t, "Status", rows[0][13])
	assert.Equal(t, "R001", rows[1][0])
	assert.Equal(t, "High", rows[1][6])
	assert.Equal(t, "04/04/2026", rows[1][12])
	assert.Equal(t, "Existing controls identified in documentation", rows[2][7])

	width, err := f.GetColWidth(SheetRisks, "K")
	require.NoError(t, err)
	assert.Equal(t, float64(40), width)

	style, err := f.GetCellStyle(SheetRisks, "A1")
	require.NoError(t, err)
	assert.NotZero(t, style)
}

func TestBuild_ControlMatrixAndSummary(t *testing.T) {
	data, err := Build(sampleInput())
	require.NoError(t, err)
	f := open(t, data)

	controls, err := f.GetRows(SheetControls)
	require.NoError(t, err)
	require.Len(t, controls, 4)
	assert.Equal(t, []string{"R001-C1", "R001-C2", "R002-C1"}, []string{controls[1][0], controls[2][0], controls[3][0]})
	assert.Equal(t, "Detective", controls[2][3])
	assert.Equal(t, "Weekly", controls[2][5])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	flat := map[string][]string{}
	for _, r := range summary {
		if len(r) > 0 {
			flat[r[0]] = r
		}
	}
	assert.Equal(t, []string{"High", "1", "50.0%"}, flat["High"])
	assert.Equal(t, []string{"Total Controls Mapped:", "3"}, flat["Total Controls Mapped:"])
	assert.Equal(t, []string{"Budget & Cost Management", "1"}, flat["Budget & Cost Management"])
}

func TestBuild_EmptyReport(t *testing.T) {
	in := sampleInput()
	in.Report = &assurance.AssuranceReport{}
	data, err := Build(in)
	require.NoError(t, err)

	rows, err := open(t, data).GetRows(SheetRisks)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
