// Package chat builds role-aware prompts from retrieved context and invokes
// the generation model, degrading to a deterministic fallback on failure.
package chat

// Role is the closed set of caller roles. Each role gets its own prompt
// focus and fallback flavor; anything unrecognized maps to RoleGeneral.
type Role string

const (
	// RoleInstructor is an operator-facing caller: scheduling, invoicing,
	// certification topics.
	RoleInstructor Role = "instructor"

	// RoleStaff is an internal-staff caller: processes and operations.
	RoleStaff Role = "staff"

	// RoleAdmin is an administrative caller: oversight and reporting.
	RoleAdmin Role = "admin"

	// RoleGeneral is the default for callers with no recognized group.
	RoleGeneral Role = "general"
)

// group names as supplied by the upstream authenticator.
const (
	groupInstructors = "instructors"
	groupStaff       = "staff"
	groupAdmins      = "admins"
)

// ParseRole maps the authenticator-supplied group list to a Role.
// Priority order mirrors the group precedence of the identity provider:
// instructors, then staff, then admins; no match yields RoleGeneral.
func ParseRole(groups []string) Role {
	has := make(map[string]bool, len(groups))
	for _, g := range groups {
		has[g] = true
	}

	switch {
	case has[groupInstructors]:
		return RoleInstructor
	case has[groupStaff]:
		return RoleStaff
	case has[groupAdmins]:
		return RoleAdmin
	default:
		return RoleGeneral
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleInstructor, RoleStaff, RoleAdmin, RoleGeneral:
		return true
	default:
		return false
	}
}
