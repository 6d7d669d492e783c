package users

import (
	"time"

	"github.com/citylink/citylink/internal/policy"
)

// User is a resident account with its profile attributes.
type User struct {
	ID            int64
	Firstname     string
	Lastname      string
	Company       *string
	Email         string
	PasswordHash  string
	Address       *string
	PostalCode    *string
	City          *string
	Phone         *string
	Birthday      *time.Time
	Avatar        *string
	MailNewEvents bool
	MailEvents    bool
	PublicProfile bool
	Role          policy.Role
	CreatedAt     time.Time
}

// Identity converts the user into a policy identity.
func (u *User) Identity() policy.Identity {
	return policy.Identity{ID: u.ID, Role: u.Role}
}

// RoleInfo describes one of the seeded capability levels.
type RoleInfo struct {
	ID   int64
	Name string
}

// NewUser carries the attributes accepted at registration.
type NewUser struct {
	Firstname     string
	Lastname      string
	Company       *string
	Email         string
	PasswordHash  string
	Address       *string
	PostalCode    *string
	City          *string
	Phone         *string
	Birthday      *time.Time
	MailNewEvents bool
	MailEvents    bool
	PublicProfile bool
	Role          policy.Role
}

// ProfileUpdate carries the mutable profile attributes. Role is applied only
// when the caller is an admin.
type ProfileUpdate struct {
	Firstname     string
	Lastname      string
	Company       *string
	Email         string
	Address       *string
	PostalCode    *string
	City          *string
	Phone         *string
	Birthday      *time.Time
	Avatar        *string
	MailNewEvents bool
	MailEvents    bool
	PublicProfile bool
	Role          *policy.Role
}
