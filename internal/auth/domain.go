package auth

import "github.com/crustline/crustline/internal/shared"

// User represents a user account as persisted.
type User struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Roles        []shared.Role `json:"roles"`
}
