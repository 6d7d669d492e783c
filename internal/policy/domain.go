package policy

// Role is the single capability level attached to an account.
type Role int64

// Role identifiers match the role_id column seeded at install time.
const (
	RoleAdmin    Role = 1
	RoleStandard Role = 2
	RoleBusiness Role = 3
)

// IsAdmin reports whether the role carries administrative capability.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Valid reports whether the role is one of the known levels.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStandard, RoleBusiness:
		return true
	}
	return false
}

// String returns the role name used in API payloads.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStandard:
		return "standard"
	case RoleBusiness:
		return "business"
	}
	return "unknown"
}

// Identity describes the authenticated caller resolved from a credential.
type Identity struct {
	ID   int64
	Role Role
}
