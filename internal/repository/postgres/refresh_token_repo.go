package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/teampulse/auth-service/internal/domain/auth"
)

var _ auth.RefreshTokenRepo = (*RefreshTokenRepo)(nil)

type RefreshTokenRepo struct{ db *DB }

func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

const (
	qRTCreate = `
INSERT INTO refresh_tokens (user_id, token_hash, family_id, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at;`

	qRTFindActive = `
SELECT id, user_id, token_hash, family_id, expires_at, revoked, created_at
FROM refresh_tokens
WHERE token_hash = $1 AND family_id = $2 AND revoked = FALSE
LIMIT 1;`

	qRTFindCurrent = `
SELECT id, user_id, token_hash, family_id, expires_at, revoked, created_at
FROM refresh_tokens
WHERE family_id = $1 AND revoked = FALSE
ORDER BY created_at DESC
LIMIT 1;`

	qRTRevokeByID = `
UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE;`

	qRTRevokeFamily = `
UPDATE refresh_tokens SET revoked = TRUE WHERE family_id = $1;`

	qRTRevokeUser = `
UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1;`

	qRTPurge = `
DELETE FROM refresh_tokens
WHERE expires_at < $1 OR (revoked = TRUE AND created_at < $2);`
)

func (r *RefreshTokenRepo) Create(ctx context.Context, t *auth.RefreshToken) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).
		QueryRow(ctx, qRTCreate, t.UserID, t.TokenHash, t.FamilyID, t.ExpiresAt).
		Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("refresh insert: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) FindActive(ctx context.Context, tokenHash, familyID string) (*auth.RefreshToken, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.scanOne(r.db.execQueryer(ctx).QueryRow(ctx, qRTFindActive, tokenHash, familyID))
}

func (r *RefreshTokenRepo) FindCurrentByFamily(ctx context.Context, familyID string) (*auth.RefreshToken, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.scanOne(r.db.execQueryer(ctx).QueryRow(ctx, qRTFindCurrent, familyID))
}

// RevokeByID is the rotation fencing point: the WHERE revoked = FALSE guard
// makes two racing rotations of one record resolve to a single winner.
func (r *RefreshTokenRepo) RevokeByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTRevokeByID, id)
	if err != nil {
		return false, fmt.Errorf("revoke refresh: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RefreshTokenRepo) RevokeFamily(ctx context.Context, familyID string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qRTRevokeFamily, familyID); err != nil {
		return fmt.Errorf("revoke family: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qRTRevokeUser, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) PurgeExpired(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Pool.Exec(ctx, qRTPurge, now, revokedBefore)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshTokenRepo) scanOne(row pgx.Row) (*auth.RefreshToken, error) {
	var t auth.RefreshToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.FamilyID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}
	return &t, nil
}
