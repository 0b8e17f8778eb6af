package domain

import "time"

// Role enumerates the access levels a user can hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAgent Role = "AGENT"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for everyone who can sign in: requesters,
// agents and admins alike. Roles are trusted as given; they are not
// re-validated against any external authority.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRef is the denormalized user snapshot embedded in tickets and
// comments. It is captured at write time and never re-synced.
type UserRef struct {
	ID     string
	Name   string
	Email  string
	Avatar string
}

// Ref returns the embeddable reference for the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}
