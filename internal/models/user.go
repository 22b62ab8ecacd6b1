// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleUser   Role = "user"
	RoleAuthor Role = "author"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAuthor, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Actor is the identity performing an operation. A nil *Actor is an
// anonymous caller.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// HasRole reports whether the actor holds any of the given roles.
func (a *Actor) HasRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// CanModify reports whether the actor may change or delete a resource
// owned by ownerID. Admins may modify anything; everyone else only what
// they own. Resources without an owner are admin-only.
func (a *Actor) CanModify(ownerID *uuid.UUID) bool {
	if a == nil {
		return false
	}
	if a.Role == RoleAdmin {
		return true
	}
	return ownerID != nil && *ownerID == a.ID
}
