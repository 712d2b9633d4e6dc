package users

import "time"

// RoleMember is the role assigned to every newly registered account.
const RoleMember = "member"

// User represents a persisted user account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastLogin    *time.Time
}
