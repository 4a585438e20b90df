package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teampulse/auth-service/internal/domain/auth"
	"github.com/teampulse/auth-service/internal/domain/user"
	pg "github.com/teampulse/auth-service/internal/repository/postgres"
)

var testPayload = auth.AccessPayload{UserID: "u-1", Email: "a@b.test"}

// fakeRTRepo is an in-memory RefreshTokenRepo with the same conditional
// revoke semantics as the SQL implementation.
type fakeRTRepo struct {
	mu   sync.Mutex
	seq  int
	recs map[string]*auth.RefreshToken

	createErr error
	findErr   error
}

func newFakeRTRepo() *fakeRTRepo {
	return &fakeRTRepo{recs: map[string]*auth.RefreshToken{}}
}

func (f *fakeRTRepo) Create(_ context.Context, t *auth.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	t.ID = fmt.Sprintf("rt-%d", f.seq)
	// Strictly increasing so FindCurrentByFamily has a total order.
	t.CreatedAt = time.Now().UTC().Add(time.Duration(f.seq) * time.Microsecond)
	cp := *t
	f.recs[t.ID] = &cp
	return nil
}

func (f *fakeRTRepo) FindActive(_ context.Context, tokenHash, familyID string) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.recs {
		if r.TokenHash == tokenHash && r.FamilyID == familyID && !r.Revoked {
			cp := *r
			return &cp, nil
		}
	}
	return nil, pg.ErrNotFound
}

func (f *fakeRTRepo) FindCurrentByFamily(_ context.Context, familyID string) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *auth.RefreshToken
	for _, r := range f.recs {
		if r.FamilyID != familyID || r.Revoked {
			continue
		}
		if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
			newest = r
		}
	}
	if newest == nil {
		return nil, pg.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (f *fakeRTRepo) RevokeByID(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[id]
	if !ok || r.Revoked {
		return false, nil
	}
	r.Revoked = true
	return true, nil
}

func (f *fakeRTRepo) RevokeFamily(_ context.Context, familyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.FamilyID == familyID {
			r.Revoked = true
		}
	}
	return nil
}

func (f *fakeRTRepo) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.UserID == userID {
			r.Revoked = true
		}
	}
	return nil
}

func (f *fakeRTRepo) PurgeExpired(_ context.Context, now, revokedBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.recs {
		if r.ExpiresAt.Before(now) || (r.Revoked && r.CreatedAt.Before(revokedBefore)) {
			delete(f.recs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRTRepo) live(familyID string) []*auth.RefreshToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*auth.RefreshToken
	for _, r := range f.recs {
		if r.FamilyID == familyID && !r.Revoked {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// fakeTx runs the closure on the same fake store. The conditional revoke
// in fakeRTRepo is the serialization point, as in the SQL implementation.
type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLockout struct {
	mu          sync.Mutex
	attempts    map[string]int
	locked      map[string]bool
	blacklisted map[string]bool

	err error
}

func newFakeLockout() *fakeLockout {
	return &fakeLockout{
		attempts:    map[string]int{},
		locked:      map[string]bool{},
		blacklisted: map[string]bool{},
	}
}

func (f *fakeLockout) RecordFailedAttempt(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.attempts[email]++
	if f.attempts[email] >= 5 {
		f.locked[email] = true
	}
	return nil
}

func (f *fakeLockout) ClearAttempts(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.attempts, email)
	return nil
}

func (f *fakeLockout) IsEmailLocked(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked[email], f.err
}

func (f *fakeLockout) IsUserBlacklisted(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blacklisted[userID], f.err
}

func (f *fakeLockout) BlacklistUser(_ context.Context, userID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.blacklisted[userID] = true
	return nil
}

type fakeUsers struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*user.User
	byEmail map[string]*user.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*user.User{}, byEmail: map[string]*user.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return pg.ErrConflict
	}
	f.seq++
	u.ID = fmt.Sprintf("u-%d", f.seq)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, pg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func newTestLedger(repo *fakeRTRepo, lockout *fakeLockout) *Ledger {
	return NewLedger(repo, fakeTx{}, lockout, zap.NewNop(), 168*time.Hour, 15*time.Minute)
}
