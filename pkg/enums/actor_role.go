package enums

import "fmt"

// ActorRole identifies which kind of viewer is issuing an action.
type ActorRole string

const (
	ActorRoleAdmin      ActorRole = "admin"
	ActorRoleOperator   ActorRole = "operator"
	ActorRoleTechnician ActorRole = "technician"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleOperator,
	ActorRoleTechnician,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
