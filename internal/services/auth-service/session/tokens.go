package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/teampulse/auth-service/internal/domain/auth"
)

const rawSecretBytes = 32

// Codec signs and verifies access tokens. Stateless: verification never
// touches a store, and individual access tokens cannot be revoked before
// their expiry.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (c *Codec) Issue(p auth.AccessPayload) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		UserID: p.UserID,
		Email:  p.Email,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify returns ErrInvalidToken for every failure mode. Bad signature,
// garbage input and expiry are indistinguishable to the caller.
func (c *Codec) Verify(tokenString string) (auth.AccessPayload, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return auth.AccessPayload{}, ErrInvalidToken
	}
	return auth.AccessPayload{UserID: claims.UserID, Email: claims.Email}, nil
}

// newRawSecret returns the capability-bearing half of a compound refresh
// token. Only its hash is ever persisted.
func newRawSecret() (string, error) {
	b := make([]byte, rawSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashSecret(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// encodeCompound joins the raw secret and the family id into the
// `<raw-secret>:<family-id>` string clients hold. The family half lets
// rotation find the chain without scanning every stored hash.
func encodeCompound(rawSecret, familyID string) string {
	return rawSecret + ":" + familyID
}

// parseCompound rejects anything that is not `<secret>:<uuid>`. The family
// half must be a well-formed uuid so fabricated input never reaches the store.
func parseCompound(compound string) (rawSecret, familyID string, err error) {
	parts := strings.Split(compound, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidToken
	}
	if _, err := uuid.Parse(parts[1]); err != nil {
		return "", "", ErrInvalidToken
	}
	return parts[0], parts[1], nil
}
