package models

import (
	"strings"
	"time"
)

// Account is a login-capable identity stored in the users table. Email and role
// are immutable after registration.
type Account struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Role         UserRole  `db:"role" json:"role"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Avatar       *string   `db:"avatar" json:"avatar,omitempty"`
	Active       bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// DisplayName joins first and last name.
func (a *Account) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// HasPassword reports whether a password hash is set. Accounts created through
// an external identity provider have none.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// AccountStatus is the slice of an account re-read on every request when
// session revalidation is enabled.
type AccountStatus struct {
	ID     string   `db:"id" json:"id"`
	Role   UserRole `db:"role" json:"role"`
	Active bool     `db:"is_active" json:"active"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
