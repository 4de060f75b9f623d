package models

// Role is the closed set of account roles. Stored as text in the users table.
type Role string

const (
	RoleAnonymous     Role = "ANONYMOUS"
	RoleAuthenticated Role = "AUTHENTICATED"
	RoleMember        Role = "MEMBER"
	RoleAdmin         Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAnonymous, RoleAuthenticated, RoleMember, RoleAdmin:
		return true
	}
	return false
}

// Application capabilities
const (
	CapabilityProfileRead    = "profile:read"
	CapabilityProfileWrite   = "profile:write"
	CapabilityChangePassword = "account:change-password"
	CapabilityUsersManage    = "users:manage"
	CapabilityUsersUnlock    = "users:unlock"
	CapabilityStatusManage   = "users:professional-status"
)

// roleCapabilities maps each role to its capability set. Authorization is a
// membership test against this table, never a raw role string comparison.
var roleCapabilities = map[Role][]string{
	RoleAnonymous: {},
	RoleAuthenticated: {
		CapabilityProfileRead,
		CapabilityProfileWrite,
		CapabilityChangePassword,
	},
	RoleMember: {
		CapabilityProfileRead,
		CapabilityProfileWrite,
		CapabilityChangePassword,
	},
	RoleAdmin: {
		CapabilityProfileRead,
		CapabilityProfileWrite,
		CapabilityChangePassword,
		CapabilityUsersManage,
		CapabilityUsersUnlock,
		CapabilityStatusManage,
	},
}

// GetDefaultCapabilities returns the capability set for a role.
func GetDefaultCapabilities(role Role) []string {
	caps, ok := roleCapabilities[role]
	if !ok {
		return []string{}
	}
	out := make([]string, len(caps))
	copy(out, caps)
	return out
}

// RoleHasCapability checks whether a role's capability set contains the
// given capability.
func RoleHasCapability(role Role, capability string) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}
