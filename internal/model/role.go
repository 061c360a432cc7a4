package model

import "fmt"

// Role is the slot a connection occupies in a live lab room.
type Role string

const (
	RoleMentor  Role = "Mentor"
	RoleStudent Role = "Student"
)

// Roles lists every role in slot order.
var Roles = []Role{RoleMentor, RoleStudent}

// ParseRole converts a wire role label into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMentor:
		return RoleMentor, nil
	case RoleStudent:
		return RoleStudent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func (r Role) String() string {
	return string(r)
}
