package enums

import "fmt"

// UserRole represents the platform-level role carried on every user.
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleStaff    UserRole = "staff"
	UserRoleCustomer UserRole = "customer"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleStaff,
	UserRoleCustomer,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsCompanyRole reports whether the role can act on behalf of a company.
func (u UserRole) IsCompanyRole() bool {
	return u == UserRoleAdmin || u == UserRoleStaff
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
