package auth

import (
	"context"
	"time"
)

type RefreshTokenRepo interface {
	Create(ctx context.Context, t *RefreshToken) error

	// FindActive returns the unrevoked record matching the hash within the
	// family, regardless of expiry. Expiry is the caller's call to make.
	FindActive(ctx context.Context, tokenHash, familyID string) (*RefreshToken, error)

	// FindCurrentByFamily returns the newest unrevoked record of a family.
	FindCurrentByFamily(ctx context.Context, familyID string) (*RefreshToken, error)

	// RevokeByID revokes a single record only if it is still unrevoked and
	// reports whether this call was the one that flipped it. Two racing
	// rotations of the same record see exactly one true.
	RevokeByID(ctx context.Context, id string) (bool, error)

	RevokeFamily(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID string) error

	// PurgeExpired is the retention boundary for the external cleanup job:
	// it deletes expired records and revoked records created before the cutoff.
	PurgeExpired(ctx context.Context, now, revokedBefore time.Time) (int64, error)
}

type LockoutCache interface {
	RecordFailedAttempt(ctx context.Context, email string) error
	ClearAttempts(ctx context.Context, email string) error
	IsEmailLocked(ctx context.Context, email string) (bool, error)
	IsUserBlacklisted(ctx context.Context, userID string) (bool, error)
	BlacklistUser(ctx context.Context, userID string, ttl time.Duration) error
}
