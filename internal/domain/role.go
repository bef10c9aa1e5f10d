package domain

import "fmt"

// Role is a user's fixed authority level inside its company. The numeric
// values are the stored representation and must not change.
type Role int16

const (
	RoleEmployee Role = 1
	RoleManager  Role = 2
	RoleAdmin    Role = 3
)

var roleNames = map[Role]string{
	RoleEmployee: "employee",
	RoleManager:  "manager",
	RoleAdmin:    "admin",
}

// Roles lists every role from least to most privileged.
func Roles() []Role {
	return []Role{RoleEmployee, RoleManager, RoleAdmin}
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int16(r))
}

// ParseRole converts a wire name ("employee", "manager", "admin") to a Role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("domain.ParseRole: unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("domain.Role.MarshalText: unknown role %d", int16(r))
	}
	return []byte(roleNames[r]), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
