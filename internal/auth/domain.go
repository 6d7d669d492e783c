package auth

import "github.com/citylink/citylink/internal/policy"

// Account is the credential-facing view of a user row: just enough to
// resolve an identity and check a password. The full profile lives in the
// users package.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         policy.Role
}

// Identity converts the account into a policy identity.
func (a *Account) Identity() policy.Identity {
	return policy.Identity{ID: a.ID, Role: a.Role}
}
