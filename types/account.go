package types

import (
	"strings"
	"time"
)

// Account is a principal that can sign in to the dashboard.
type Account struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen at registration.
	Username string `json:"username" db:"username"`

	// Email is the primary email address of the account.
	Email string `json:"email" db:"email"`

	// Name is the display name, usually "First Last".
	Name string `json:"name" db:"name"`

	// Role is the authorization level ("member", "admin").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FirstName returns the first word of the display name.
func (a Account) FirstName() string {
	first, _ := splitName(a.Name)
	return first
}

// LastName returns everything after the first word of the display name.
func (a Account) LastName() string {
	_, last := splitName(a.Name)
	return last
}

func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
