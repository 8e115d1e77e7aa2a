package models

import "strings"

// Role is the marketplace role returned by the backend for a user.
type Role string

// Role constants for marketplace users.
const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleBuyer, RoleSeller}

// ParseRole normalizes a raw role string. Unknown values are returned as-is
// so callers can decide how to treat them; use Valid to check.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// Valid reports whether r is a known marketplace role.
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// DashboardPath returns the landing page for the role.
func (r Role) DashboardPath() string {
	switch r {
	case RoleBuyer:
		return "/buyer/dashboard"
	case RoleSeller:
		return "/seller/dashboard"
	default:
		return "/"
	}
}

// Label is the human-readable role name ("Buyer", "Seller").
func (r Role) Label() string {
	switch r {
	case RoleBuyer:
		return "Buyer"
	case RoleSeller:
		return "Seller"
	default:
		return string(r)
	}
}

// User is the locally cached profile returned by login.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}
