package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/teampulse/auth-service/internal/domain/auth"
	"github.com/teampulse/auth-service/internal/domain/user"
	pg "github.com/teampulse/auth-service/internal/repository/postgres"
)

// TokenPair is what every successful authentication hands the client: a
// short-lived signed access token and a long-lived compound refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Config struct {
	BcryptCost int
}

// Usecase composes the credential store, token codec, refresh ledger and
// lockout cache into the public session operations.
type Usecase struct {
	users   user.Repo
	codec   *Codec
	ledger  *Ledger
	lockout auth.LockoutCache
	log     *zap.Logger
	cfg     Config
}

func NewUsecase(users user.Repo, codec *Codec, ledger *Ledger, lockout auth.LockoutCache, log *zap.Logger, cfg Config) *Usecase {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Usecase{
		users:   users,
		codec:   codec,
		ledger:  ledger,
		lockout: lockout,
		log:     log,
		cfg:     cfg,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *Usecase) Register(ctx context.Context, email, password, name string) (*user.User, TokenPair, error) {
	email = normalizeEmail(email)
	if len(password) < 8 {
		return nil, TokenPair{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cfg.BcryptCost)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	newUser := &user.User{Email: email, Name: name, PasswordHash: string(hash)}
	if err := u.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			return nil, TokenPair{}, ErrEmailExists
		}
		return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	pair, err := u.issuePair(ctx, newUser)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return newUser, pair, nil
}

// Login verifies credentials and starts a fresh refresh token family,
// independent of any family a previous login created. Failure is uniform:
// unknown email and wrong password are not distinguishable to the caller.
func (u *Usecase) Login(ctx context.Context, email, password string) (*user.User, TokenPair, error) {
	email = normalizeEmail(email)

	locked, err := u.lockout.IsEmailLocked(ctx, email)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	if locked {
		lockoutsTotal.Inc()
		loginFailureTotal.Inc()
		return nil, TokenPair{}, ErrAccountLocked
	}

	rec, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			loginFailureTotal.Inc()
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		if err := u.lockout.RecordFailedAttempt(ctx, email); err != nil {
			return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
		}
		loginFailureTotal.Inc()
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	if err := u.lockout.ClearAttempts(ctx, email); err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	pair, err := u.issuePair(ctx, rec)
	if err != nil {
		return nil, TokenPair{}, err
	}
	loginSuccessTotal.Inc()
	return rec, pair, nil
}

// Refresh exchanges a compound refresh token for a fresh pair. The distinct
// failure causes (reuse, expiry, malformed input) stay distinct here for
// logging; the transport collapses them into one unauthorized answer.
func (u *Usecase) Refresh(ctx context.Context, compound string) (*user.User, TokenPair, error) {
	_, familyID, err := parseCompound(compound)
	if err != nil {
		return nil, TokenPair{}, err
	}

	current, err := u.ledger.Current(ctx, familyID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	blacklisted, err := u.lockout.IsUserBlacklisted(ctx, current.UserID)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	if blacklisted {
		return nil, TokenPair{}, ErrAccountLocked
	}

	rec, err := u.users.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, TokenPair{}, ErrUserNotFound
		}
		return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	refresh, err := u.ledger.Rotate(ctx, compound, rec.ID)
	if err != nil {
		u.log.Info("refresh rejected",
			zap.String("family_id", familyID),
			zap.String("user_id", rec.ID),
			zap.Error(err),
		)
		return nil, TokenPair{}, err
	}

	access, err := u.codec.Issue(auth.AccessPayload{UserID: rec.ID, Email: rec.Email})
	if err != nil {
		return nil, TokenPair{}, err
	}

	return rec, TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes every refresh family the user owns. Idempotent: logging
// out an already-revoked user succeeds silently. Outstanding access tokens
// survive until their own short expiry.
func (u *Usecase) Logout(ctx context.Context, userID string) error {
	return u.ledger.RevokeAllForUser(ctx, userID)
}

func (u *Usecase) GetProfile(ctx context.Context, userID string) (*user.User, error) {
	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return rec, nil
}

// ParseAccess verifies a bearer token for middleware use.
func (u *Usecase) ParseAccess(tokenString string) (auth.AccessPayload, error) {
	return u.codec.Verify(tokenString)
}

func (u *Usecase) issuePair(ctx context.Context, rec *user.User) (TokenPair, error) {
	access, err := u.codec.Issue(auth.AccessPayload{UserID: rec.ID, Email: rec.Email})
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := u.ledger.Issue(ctx, rec.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
