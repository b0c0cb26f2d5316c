package models

import "time"

// ActivationToken is a single-use activation code issued to a user.
// Only the argon2id hash of the code is stored. A token is "active" while
// ConsumedAt is nil; at most one token per user is active at any time.
// Tokens are consumed or superseded, never deleted.
type ActivationToken struct {
	ID         string
	UserID     string
	CodeHash   string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Active reports whether the token has not been consumed yet. Expiry is a
// separate check owned by the activation flow.
func (t *ActivationToken) Active() bool {
	return t.ConsumedAt == nil
}
