package jwt

import (
	"strings"
	"testing"
	"time"

	"jobboard-service/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	secretA = []byte("0123456789abcdef0123456789abcdef-secret-A")
	secretB = []byte("0123456789abcdef0123456789abcdef-secret-B")
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestCodec(t *testing.T, secret []byte, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(secret, WithClock(fixedClock(now)))
	require.NoError(t, err)
	return c
}

func assertClaimsEqual(t *testing.T, want SessionClaims, got *SessionClaims) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.Role, got.Role)
	assert.True(t, want.IssuedAt.Equal(got.IssuedAt), "issued %v != %v", want.IssuedAt, got.IssuedAt)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt), "expires %v != %v", want.ExpiresAt, got.ExpiresAt)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 15, 500, time.UTC)
	codec := newTestCodec(t, secretA, now)

	for _, role := range []auth.Role{auth.RoleUser, auth.RoleCorporation, auth.RoleAdmin} {
		claims := codec.NewClaims(42, role)
		assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))

		token, err := codec.Issue(claims)
		require.NoError(t, err)

		got, err := codec.Verify(token)
		require.NoError(t, err)
		assertClaimsEqual(t, claims, got)
	}
}

func TestVerifyRejectsEverySingleBitMutation(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, secretA, now)
	token, err := codec.Issue(codec.NewClaims(7, auth.RoleUser))
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		for bit := 0; bit < 8; bit++ {
			mutated := []byte(token)
			mutated[i] ^= 1 << bit
			_, err := codec.Verify(string(mutated))
			if err == nil {
				t.Fatalf("mutation at byte %d bit %d was accepted", i, bit)
			}
		}
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	now := time.Now()
	issuer := newTestCodec(t, secretA, now)
	other := newTestCodec(t, secretB, now)

	token, err := issuer.Issue(issuer.NewClaims(9, auth.RoleAdmin))
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer := newTestCodec(t, secretA, issuedAt)
	token, err := issuer.Issue(issuer.NewClaims(3, auth.RoleUser))
	require.NoError(t, err)

	later := newTestCodec(t, secretA, issuedAt.Add(DefaultTTL+time.Second))
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)

	atExpiry := newTestCodec(t, secretA, issuedAt.Add(DefaultTTL))
	_, err = atExpiry.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)

	justBefore := newTestCodec(t, secretA, issuedAt.Add(DefaultTTL-time.Second))
	_, err = justBefore.Verify(token)
	assert.NoError(t, err)
}

func TestVerifyRejectsPastExpiryEvenWhenIssuedThatWay(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	codec := newTestCodec(t, secretA, now)

	token, err := codec.Issue(SessionClaims{
		UserID:    5,
		Role:      auth.RoleUser,
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, secretA, now)
	claims := &tokenClaims{
		UserID: 1,
		Role:   string(auth.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secretA)
	require.NoError(t, err)
	_, err = codec.Verify(hs512)
	assert.ErrorIs(t, err, ErrBadSignature)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Verify(none)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingExpiry(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, secretA, now)
	claims := &tokenClaims{
		UserID: 1,
		Role:   string(auth.RoleUser),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   DefaultIssuer,
			Subject:  "1",
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretA)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyMalformedInput(t *testing.T) {
	codec := newTestCodec(t, secretA, time.Now())
	for _, token := range []string{"", "   ", "abc", "a.b", "a.b.c", strings.Repeat("x", 300)} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, ErrMalformed, "token=%q", token)
	}
}

func TestIssueValidatesClaims(t *testing.T) {
	codec := newTestCodec(t, secretA, time.Now())

	_, err := codec.Issue(SessionClaims{UserID: 0, IssuedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)})
	assert.Error(t, err)

	now := time.Now()
	_, err = codec.Issue(SessionClaims{UserID: 1, IssuedAt: now, ExpiresAt: now})
	assert.Error(t, err)
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec(nil)
	assert.Error(t, err)
}
