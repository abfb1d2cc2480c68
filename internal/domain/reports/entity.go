package reports

import (
	"time"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

// ReportID identifier type
type ReportID string

// ViewMode enum
type ViewMode string

const (
	ViewDashboard    ViewMode = "dashboard"
	ViewProfessional ViewMode = "professional"
)

// ParseViewMode defaults to the dashboard for anything unknown.
func ParseViewMode(s string) ViewMode {
	if ViewMode(s) == ViewProfessional {
		return ViewProfessional
	}
	return ViewDashboard
}

// SavedReport wraps one AssuranceReport with project identity. Created on save,
// read for history, deleted on request. There is no update path.
type SavedReport struct {
	ID             ReportID                    `json:"id"`
	OrganizationID string                      `json:"organizationId,omitempty"`
	UserID         string                      `json:"userId,omitempty"`
	ProjectName    string                      `json:"projectName"`
	ProjectNumber  string                      `json:"projectNumber"`
	ProjectStage   string                      `json:"projectStage"`
	Report         assurance.AssuranceReport   `json:"report"`
	Documents      []assurance.DocumentSummary `json:"documents"`
	ViewMode       ViewMode                    `json:"viewMode"`
	CreatedAt      time.Time                   `json:"created_at"`
}
