package users

import "github.com/crustline/crustline/internal/shared"

// User is the profile view of an account.
type User struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Roles []shared.Role `json:"roles"`
}

// UpdateParams carries the persisted-field changes of a profile update.
// Nil fields are left unchanged.
type UpdateParams struct {
	Name         *string
	Email        *string
	PasswordHash *string
}
