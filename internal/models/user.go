package models

import "github.com/mafundi/mafundi-cli/internal/constants"

// User is an authenticated account.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsFundi reports whether the user looks for work.
func (u User) IsFundi() bool { return u.Role == constants.RoleFundi }

// IsForeman reports whether the user posts jobs.
func (u User) IsForeman() bool { return u.Role == constants.RoleForeman }

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the signup payload.
type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`
}

// Validate checks the registration before it is sent.
func (r Registration) Validate() error {
	if r.Password != r.PasswordConfirmation {
		return NewValidationError("password_confirmation", "Passwords do not match")
	}
	if r.Role != constants.RoleFundi && r.Role != constants.RoleForeman {
		return NewValidationError("role", "Role must be fundi or foreman")
	}
	return nil
}

// AuthResponse represents the expected structure of the login response.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
