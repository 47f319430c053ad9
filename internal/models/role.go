package models

import "fmt"

// Role determines which screens and query scopes apply to an identity.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a raw string onto the closed role set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleProvider:
		return RoleProvider, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role: %q", raw)
}

func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
