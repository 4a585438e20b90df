package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCodec_IssueVerify(t *testing.T) {
	t.Parallel()

	c := NewCodec([]byte("test-secret"), 15*time.Minute)

	signed, err := c.Issue(testPayload)
	require.NoError(t, err)

	got, err := c.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, testPayload, got)
}

func TestCodec_Expired(t *testing.T) {
	t.Parallel()

	c := NewCodec([]byte("test-secret"), 15*time.Minute)

	signed, err := c.Issue(testPayload)
	require.NoError(t, err)

	c.now = func() time.Time { return time.Now().UTC().Add(16 * time.Minute) }

	_, err = c.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	signed, err := NewCodec([]byte("right"), time.Hour).Issue(testPayload)
	require.NoError(t, err)

	_, err = NewCodec([]byte("wrong"), time.Hour).Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_Garbage(t *testing.T) {
	t.Parallel()

	c := NewCodec([]byte("test-secret"), time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "a.b"} {
		_, err := c.Verify(tok)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestParseCompound(t *testing.T) {
	t.Parallel()

	raw, err := newRawSecret()
	require.NoError(t, err)

	fam := uuid.NewString()
	secret, family, err := parseCompound(encodeCompound(raw, fam))
	require.NoError(t, err)
	require.Equal(t, raw, secret)
	require.Equal(t, fam, family)

	for _, bad := range []string{
		"",
		"no-separator",
		":family-only",
		"secret-only:",
		"a:b:c",
		"abc:not-a-uuid",
	} {
		_, _, err := parseCompound(bad)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("parseCompound(%q): got %v, want ErrInvalidToken", bad, err)
		}
	}
}

func TestHashSecret_Deterministic(t *testing.T) {
	t.Parallel()

	require.Equal(t, hashSecret("abc"), hashSecret("abc"))
	require.NotEqual(t, hashSecret("abc"), hashSecret("abd"))
	require.Len(t, hashSecret("abc"), 64)
}
