package identity

import "time"

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAuditor Role = "auditor"
	RoleViewer  Role = "viewer"
)

func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleAuditor || r == RoleViewer
}

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is soft-deleted; DeletedAt is set instead of removing the row.
type User struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organizationId"`
	OrganizationName string     `json:"organizationName,omitempty"`
	OrganizationSlug string     `json:"organizationSlug,omitempty"`
	Email            string     `json:"email"`
	PasswordHash     *string    `json:"-"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Role             Role       `json:"role"`
	IsOrgAdmin       bool       `json:"isOrgAdmin"`
	IsSuperAdmin     bool       `json:"isSuperAdmin"`
	EmailVerified    bool       `json:"emailVerified"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	DeletedAt        *time.Time `json:"-"`
}

// Session stores sha256 hashes of the issued tokens, never the tokens themselves.
type Session struct {
	ID               string
	UserID           string
	TokenHash        string
	RefreshTokenHash string
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	CreatedAt        time.Time
}

type Invitation struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Token          string    `json:"-"`
	InvitedBy      string    `json:"invitedBy"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// UserPatch carries optional fields; nil means keep the stored value.
type UserPatch struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *Role   `json:"role"`
}
