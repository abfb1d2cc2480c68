package audit

import (
	"context"
	"time"
)

// Entry represents a persisted audit_log row.
type Entry struct {
	ID             int64     `json:"id"`
	OrganizationID string    `json:"organizationId"`
	UserID         string    `json:"userId"`
	Action         string    `json:"action"`
	ResourceType   string    `json:"resourceType,omitempty"`
	ResourceID     string    `json:"resourceId,omitempty"`
	DetailsJSON    string    `json:"details,omitempty"`
	IPAddress      string    `json:"ipAddress,omitempty"`
	UserAgent      string    `json:"userAgent,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

const (
	ActionUserRegistered = "user_registered"
	ActionUserLogin      = "user_login"
	ActionUserLogout     = "user_logout"
	ActionUserInvited    = "user_invited"
	ActionUserUpdated    = "user_updated"
	ActionUserDeleted    = "user_deleted"
	ActionReportSaved    = "report_saved"
	ActionReportDeleted  = "report_deleted"
)

// Repository defines persistence for audit entries
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	ListByOrganization(ctx context.Context, org string, limit int) ([]*Entry, error)
}
