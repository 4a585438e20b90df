package auth

import (
	"time"
)

// AccessPayload is the identity a signed access token carries.
type AccessPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// RefreshToken is one link in a rotation family. Only the sha256 hash of
// the raw secret is ever stored; the raw secret exists solely in the
// compound token handed to the client.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	FamilyID  string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
