// Package xlsx writes the risk and control matrix workbook.
package xlsx

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bryanwahyu/automaton-assurance/internal/application"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/export/riskmatrix"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetCover    = "Cover"
	SheetRisks    = "Risk Register"
	SheetControls = "Control Matrix"
	SheetSummary  = "Summary"
)

type column struct {
	header string
	width  float64
}

var riskColumns = []column{
	{"Risk ID", 10}, {"Category", 20}, {"Description", 35}, {"Observation", 35},
	{"Likelihood", 12}, {"Impact", 12}, {"Risk Rating", 15}, {"Existing Controls", 30},
	{"Effectiveness", 18}, {"Residual Risk", 15}, {"Recommended Actions", 40},
	{"Owner", 20}, {"Target Date", 15}, {"Status", 12},
}

var controlColumns = []column{
	{"Control ID", 12}, {"Risk ID", 10}, {"Description", 40}, {"Type", 15},
	{"Owner", 20}, {"Frequency", 15}, {"Effectiveness", 15}, {"Evidence", 30},
	{"Gaps", 30}, {"Recommendations", 40}, {"Status", 15},
}

// Input is everything the workbook needs. Now drives the report date and target dates.
type Input struct {
	Report        *assurance.AssuranceReport
	ProjectName   string
	ProjectNumber string
	Now           time.Time
}

// Filename returns Risk_Control_Matrix_<number>_<YYYY-MM-DD>.xlsx.
func Filename(projectNumber string, now time.Time) string {
	return fmt.Sprintf("Risk_Control_Matrix_%s_%s.xlsx", reports.FilePart(projectNumber), now.Format("2006-01-02"))
}

// Build renders the four-sheet workbook and returns its bytes.
func Build(in Input) ([]byte, error) {
	b := riskmatrix.New(application.FixedClock(in.Now))
	risks := b.Risks(in.Report)
	controls := b.Controls(in.Report)
	summary := riskmatrix.Summarize(in.Report, risks, controls)

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	w := &sheetWriter{f: f, bold: bold}

	if err := f.SetSheetName("Sheet1", SheetCover); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}
	for _, name := range []string{SheetRisks, SheetControls, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx new sheet %s: %w", name, err)
		}
	}

	w.cover(in)
	w.table(SheetRisks, riskColumns, riskRows(risks))
	w.table(SheetControls, controlColumns, controlRows(controls))
	w.summary(summary)
	if w.err != nil {
		return nil, w.err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (w *sheetWriter) row(sheet string, row int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("xlsx %s row %d: %w", sheet, row, err)
	}
}

func (w *sheetWriter) boldRow(sheet string, row, cols int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(cols, row)
	if err := w.f.SetCellStyle(sheet, from, to, w.bold); err != nil {
		w.err = fmt.Errorf("xlsx %s style: %w", sheet, err)
	}
}

func (w *sheetWriter) table(sheet string, cols []column, rows [][]any) {
	headers := make([]any, len(cols))
	for i, c := range cols {
		headers[i] = c.header
		if w.err == nil {
			name, _ := excelize.ColumnNumberToName(i + 1)
			w.err = w.f.SetColWidth(sheet, name, name, c.width)
		}
	}
	w.row(sheet, 1, headers...)
	w.boldRow(sheet, 1, len(cols))
	for i, r := range rows {
		w.row(sheet, i+2, r...)
	}
}

func (w *sheetWriter) cover(in Input) {
	lines := [][]any{
		{"RISK AND CONTROL MATRIX"},
		{},
		{"Project Name:", in.ProjectName},
		{"Project Number:", in.ProjectNumber},
		{"Report Date:", in.Now.Format(riskmatrix.DateLayout)},
		{"Overall Risk Score:", fmt.Sprintf("%g%%", in.Report.OverallScore)},
		{},
		{"Document Purpose:"},
		{"This Risk and Control Matrix provides a comprehensive view of identified risks,"},
		{"existing controls, control effectiveness, and recommended actions for the project."},
		{},
		{"Contents:"},
		{"1. Risk Register - Comprehensive list of identified risks"},
		{"2. Control Matrix - Detailed control framework and effectiveness assessment"},
		{"3. Summary Dashboard - Key metrics and risk distribution"},
	}
	for i, l := range lines {
		w.row(SheetCover, i+1, l...)
	}
	w.boldRow(SheetCover, 1, 1)
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetCover, "A", "A", 22)
	}
}

func (w *sheetWriter) summary(s riskmatrix.Summary) {
	var lines [][]any
	heading := map[int]bool{}
	add := func(h bool, v ...any) {
		lines = append(lines, v)
		if h {
			heading[len(lines)] = true
		}
	}
	add(true, "RISK AND CONTROL SUMMARY DASHBOARD")
	add(false)
	add(false, "Overall Assessment Score:", fmt.Sprintf("%g%%", s.OverallScore))
	add(false)
	add(true, "RISK DISTRIBUTION")
	add(true, "Risk Level", "Count", "Percentage")
	for _, c := range s.RiskDistribution {
		add(false, c.Label, c.Count, c.Percentage)
	}
	add(false)
	add(true, "RISKS BY CATEGORY")
	add(true, "Category", "Count")
	for _, c := range s.RisksByCategory {
		add(false, c.Label, c.Count)
	}
	add(false)
	add(true, "CONTROL EFFECTIVENESS")
	add(true, "Effectiveness Level", "Count", "Percentage")
	for _, c := range s.ControlEffectiveness {
		add(false, c.Label, c.Count, c.Percentage)
	}
	add(false)
	add(true, "KEY METRICS")
	add(false, "Total Risks Identified:", s.TotalRisks)
	add(false, "Total Controls Mapped:", s.TotalControls)
	add(false, "Open Actions:", s.OpenActions)
	add(false, "Controls Requiring Implementation:", s.ControlsToImplement)

	for i, l := range lines {
		w.row(SheetSummary, i+1, l...)
		if heading[i+1] {
			w.boldRow(SheetSummary, i+1, 3)
		}
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetSummary, "A", "A", 36)
	}
}

func riskRows(rows []riskmatrix.RiskMatrixRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			r.RiskID, r.RiskCategory, r.RiskDescription, r.Observation, r.Likelihood,
			r.Impact, r.RiskRating, r.ExistingControls, r.ControlEffectiveness,
			r.ResidualRisk, r.RecommendedActions, r.Owner, r.TargetDate, r.Status,
		})
	}
	return out
}

func controlRows(rows []riskmatrix.ControlMatrixRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, c := range rows {
		out = append(out, []any{
			c.ControlID, c.RiskID, c.ControlDescription, c.ControlType, c.ControlOwner,
			c.Frequency, c.Effectiveness, c.Evidence, c.Gaps, c.Recommendations, c.Status,
		})
	}
	return out
}
