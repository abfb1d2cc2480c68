package identity

const (
	PermUsersCreate   = "users.create"
	PermUsersUpdate   = "users.update"
	PermUsersDelete   = "users.delete"
	PermReportsCreate = "reports.create"
	PermReportsDelete = "reports.delete"
)

var rolePermissions = map[Role]map[string]bool{
	RoleAdmin: {
		PermUsersCreate:   true,
		PermUsersUpdate:   true,
		PermUsersDelete:   true,
		PermReportsCreate: true,
		PermReportsDelete: true,
	},
	RoleAuditor: {
		PermReportsCreate: true,
		PermReportsDelete: true,
	},
	RoleViewer: {},
}

// Can reports whether the user holds the permission. Super admins hold all of them.
func (u *User) Can(perm string) bool {
	if u == nil {
		return false
	}
	if u.IsSuperAdmin {
		return true
	}
	return rolePermissions[u.Role][perm]
}

// IsAdmin is true for organization admins and super admins.
func (u *User) IsAdmin() bool {
	return u != nil && (u.IsOrgAdmin || u.IsSuperAdmin)
}
