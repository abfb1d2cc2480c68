package assurance

import "strings"

// FocusArea is a user-selected audit dimension passed to the assessment prompt.
type FocusArea string

const (
	FocusBudget       FocusArea = "Budget & Cost Management"
	FocusSchedule     FocusArea = "Schedule & Milestones"
	FocusRequirements FocusArea = "Requirements & Scope"
	FocusGovernance   FocusArea = "Governance & Reporting"
	FocusRisk         FocusArea = "Risk & Issue Management"
	FocusResources    FocusArea = "Resource Allocation"
	FocusArchitecture FocusArea = "Solution Architecture Alignment"
	FocusBenefits     FocusArea = "Benefits Realisation"
)

// FocusAreas in display order.
var FocusAreas = []FocusArea{
	FocusBudget,
	FocusSchedule,
	FocusRequirements,
	FocusGovernance,
	FocusRisk,
	FocusResources,
	FocusArchitecture,
	FocusBenefits,
}

// Stage enum
type Stage string

const (
	StageInitiation Stage = "Initiation"
	StagePlanning   Stage = "Planning"
	StageExecution  Stage = "Execution"
	StageMonitoring Stage = "Monitoring & Control"
	StageClosing    Stage = "Closing"
)

var Stages = []Stage{StageInitiation, StagePlanning, StageExecution, StageMonitoring, StageClosing}

// Document categories assigned at upload.
const (
	CategoryRequirement  = "Requirement"
	CategoryDesign       = "Design"
	CategoryBusinessCase = "Business Case"
	CategoryArchitecture = "Architecture"
	CategoryBudget       = "Budget"
	CategoryPlan         = "Plan"
	CategoryRiskRegister = "Risk Register"
	CategoryStatusReport = "Status Report"
	CategoryOther        = "Other"
)

// ProjectDocument is created at upload and never modified afterwards.
type ProjectDocument struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     string `json:"size"`
	Category string `json:"category"`
	Content  string `json:"content,omitempty"`
}

// Summary drops the content; this is what gets persisted next to a report.
func (d ProjectDocument) Summary() DocumentSummary {
	return DocumentSummary{ID: d.ID, Name: d.Name, Type: d.Type, Size: d.Size, Category: d.Category}
}

type DocumentSummary struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Size     string `json:"size,omitempty"`
	Category string `json:"category,omitempty"`
}

// ProjectData is the analysis input.
type ProjectData struct {
	Name       string            `json:"name"`
	Number     string            `json:"number"`
	FocusAreas []FocusArea       `json:"focusAreas"`
	Stage      Stage             `json:"stage"`
	Documents  []ProjectDocument `json:"documents"`
}

func (p ProjectData) DocumentSummaries() []DocumentSummary {
	out := make([]DocumentSummary, 0, len(p.Documents))
	for _, d := range p.Documents {
		out = append(out, d.Summary())
	}
	return out
}

func ValidStage(s Stage) bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

func ValidFocusArea(f FocusArea) bool {
	for _, fa := range FocusAreas {
		if fa == f {
			return true
		}
	}
	return false
}

// NormalizeSeverity maps free-form labels onto High/Medium/Low. Unknown values
// fall back to Medium.
func NormalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical":
		return SeverityHigh
	case "low":
		return SeverityLow
	default:
		return SeverityMedium
	}
}
