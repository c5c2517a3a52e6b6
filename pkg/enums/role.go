package enums

import "fmt"

// Role is the operator role carried in access-token claims. The console's
// user administration lives in an external back office; this service only
// interprets the role for permission gating.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSeller   Role = "vendedor"
	RoleOperator Role = "operador"
)

var validRoles = []Role{
	RoleAdmin,
	RoleSeller,
	RoleOperator,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// CanSelectSalesperson reports whether the role may override the salesperson
// attached to an order at finalization time.
func (r Role) CanSelectSalesperson() bool {
	return r == RoleAdmin || r == RoleOperator
}
