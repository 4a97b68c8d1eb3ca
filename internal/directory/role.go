package directory

// Role classifies a user for authorization. Protected operations check
// explicit allow-lists; there is no privilege ordering between roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleStudent  Role = "student"
)

// Valid returns true when the role is a supported value.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleEmployee, RoleStudent:
		return true
	default:
		return false
	}
}

// ParseRole maps a raw hint to a Role, defaulting to employee for
// empty or unknown values.
func ParseRole(s string) Role {
	if r := Role(s); r.Valid() {
		return r
	}
	return RoleEmployee
}

// Status marks a user record active or inactive. Records are never
// hard-deleted, only flipped to inactive.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)
