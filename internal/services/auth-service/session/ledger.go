package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teampulse/auth-service/internal/domain/auth"
	"github.com/teampulse/auth-service/internal/obs"
	pg "github.com/teampulse/auth-service/internal/repository/postgres"
)

// errRotationLost marks the loser of two racing rotations of the same
// record. Never escapes Rotate: the loser is folded into the reuse branch.
var errRotationLost = errors.New("rotation lost the revoke race")

// Ledger owns refresh token families: issuance, rotation with reuse
// detection, and revocation. A family is a forward-only chain descending
// from one login or registration; at most one record per family is live.
type Ledger struct {
	repo         auth.RefreshTokenRepo
	tx           pg.Transactor
	lockout      auth.LockoutCache
	log          *zap.Logger
	refreshTTL   time.Duration
	blacklistTTL time.Duration
	now          func() time.Time
}

func NewLedger(repo auth.RefreshTokenRepo, tx pg.Transactor, lockout auth.LockoutCache, log *zap.Logger, refreshTTL, blacklistTTL time.Duration) *Ledger {
	return &Ledger{
		repo:         repo,
		tx:           tx,
		lockout:      lockout,
		log:          log,
		refreshTTL:   refreshTTL,
		blacklistTTL: blacklistTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Issue starts a brand-new family for the user and returns the compound
// token. Every login and registration gets its own family; prior families
// are untouched.
func (l *Ledger) Issue(ctx context.Context, userID string) (string, error) {
	return l.insert(ctx, userID, uuid.NewString())
}

// Current returns the newest live record of a family, used to resolve the
// owning user before rotation. A family with no live record yields
// ErrInvalidToken: there is nothing left to protect by revoking it again.
func (l *Ledger) Current(ctx context.Context, familyID string) (*auth.RefreshToken, error) {
	rec, err := l.repo.FindCurrentByFamily(ctx, familyID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return rec, nil
}

// Rotate exchanges a presented compound token for a successor in the same
// family. Any presentation that does not match a live record — already
// rotated, fabricated, or the loser of a concurrent rotation — is treated
// as theft: the whole family is revoked and the user blacklisted.
func (l *Ledger) Rotate(ctx context.Context, compound, userID string) (string, error) {
	rawSecret, familyID, err := parseCompound(compound)
	if err != nil {
		return "", err
	}
	tokenHash := hashSecret(rawSecret)

	rec, err := l.repo.FindActive(ctx, tokenHash, familyID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return "", l.flagReuse(ctx, familyID, userID)
		}
		return "", fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	if rec.Expired(l.now()) {
		// Left unrevoked: it can never rotate again and lapses naturally.
		return "", ErrTokenExpired
	}

	var successor string
	txErr := l.tx.WithTx(ctx, func(ctx context.Context) error {
		won, err := l.repo.RevokeByID(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
		}
		if !won {
			return errRotationLost
		}
		successor, err = l.insert(ctx, rec.UserID, familyID)
		return err
	})
	if txErr != nil {
		if errors.Is(txErr, errRotationLost) {
			// Two simultaneous presentations of one secret are
			// indistinguishable from theft.
			return "", l.flagReuse(ctx, familyID, userID)
		}
		return "", txErr
	}

	rotationsTotal.Inc()
	return successor, nil
}

// RevokeFamily marks every record sharing the family id revoked. Idempotent.
func (l *Ledger) RevokeFamily(ctx context.Context, familyID string) error {
	if err := l.repo.RevokeFamily(ctx, familyID); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return nil
}

// RevokeAllForUser kills every family the user owns. Idempotent; used on
// logout. Outstanding access tokens stay valid until their own expiry.
func (l *Ledger) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := l.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return nil
}

func (l *Ledger) insert(ctx context.Context, userID, familyID string) (string, error) {
	rawSecret, err := newRawSecret()
	if err != nil {
		return "", err
	}
	rec := &auth.RefreshToken{
		UserID:    userID,
		TokenHash: hashSecret(rawSecret),
		FamilyID:  familyID,
		ExpiresAt: l.now().Add(l.refreshTTL),
	}
	if err := l.repo.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return encodeCompound(rawSecret, familyID), nil
}

// flagReuse is the fail-closed replay branch: revoke every descendant of
// the family (an attacker holding a newer unused link gains nothing) and
// blacklist the user for the cool-down window.
func (l *Ledger) flagReuse(ctx context.Context, familyID, userID string) error {
	obs.WithTrace(ctx, l.log).Warn("refresh token reuse detected, revoking family",
		zap.String("family_id", familyID),
		zap.String("user_id", userID),
	)
	reuseDetectedTotal.Inc()

	if err := l.repo.RevokeFamily(ctx, familyID); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	if err := l.lockout.BlacklistUser(ctx, userID, l.blacklistTTL); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return ErrTokenReuseDetected
}
