package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestService(t *testing.T, clock *fakeClock) *JWTService {
	t.Helper()
	svc, err := NewJWTService(
		TokenKeyConfig{Secret: "session-secret", TTL: time.Hour},
		TokenKeyConfig{Secret: "reset-secret", TTL: 15 * time.Minute},
	)
	require.NoError(t, err)
	return svc.WithClock(clock.Now)
}

func sampleClaims() ports.TokenClaims {
	return ports.TokenClaims{
		Subject: uuid.New(),
		Email:   "a@x.com",
		Role:    domain.RoleUser,
	}
}

func TestSessionTokenExpiryBoundary(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)
	in := sampleClaims()

	token, issued, err := svc.Issue(ports.TokenKindSession, in)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(time.Hour), issued.ExpiresAt)

	clock.now = issued.ExpiresAt.Add(-time.Second)
	got, err := svc.Verify(ports.TokenKindSession, token)
	require.NoError(t, err)
	assert.Equal(t, in.Subject, got.Subject)
	assert.Equal(t, in.Email, got.Email)
	assert.Equal(t, domain.RoleUser, got.Role)

	clock.now = issued.ExpiresAt.Add(time.Second)
	_, err = svc.Verify(ports.TokenKindSession, token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.NotErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	reset, _, err := svc.Issue(ports.TokenKindReset, sampleClaims())
	require.NoError(t, err)
	_, err = svc.Verify(ports.TokenKindSession, reset)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	session, _, err := svc.Issue(ports.TokenKindSession, sampleClaims())
	require.NoError(t, err)
	_, err = svc.Verify(ports.TokenKindReset, session)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestResetTokenCarriesNoRole(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	token, _, err := svc.Issue(ports.TokenKindReset, sampleClaims())
	require.NoError(t, err)
	got, err := svc.Verify(ports.TokenKindReset, token)
	require.NoError(t, err)
	assert.Empty(t, got.Role)
}

func TestVerifyRejectsTamperedAndForeignTokens(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	token, _, err := svc.Issue(ports.TokenKindSession, sampleClaims())
	require.NoError(t, err)

	tampered := strings.Replace(token, ".", ".X", 1)
	_, err = svc.Verify(ports.TokenKindSession, tampered)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.Verify(ports.TokenKindSession, "not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"kind": "session",
		"exp":  clock.now.Add(time.Hour).Unix(),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(ports.TokenKindSession, unsigned)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestExpiredTokenWithWrongSecretIsInvalid(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token, _, err := issueToken(issuedAt, ports.TokenKindSession, sampleClaims(), "other-secret", time.Minute)
	require.NoError(t, err)

	clock := &fakeClock{now: issuedAt.Add(time.Hour)}
	_, err = newTestService(t, clock).Verify(ports.TokenKindSession, token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestPackageLevelIssueAndVerify(t *testing.T) {
	t.Parallel()

	token, _, err := IssueToken(ports.TokenKindSession, sampleClaims(), "s3cret", time.Minute)
	require.NoError(t, err)
	_, err = verifyToken(time.Now, ports.TokenKindSession, token, "s3cret")
	require.NoError(t, err)
	_, err = verifyToken(time.Now, ports.TokenKindSession, token, "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewJWTServiceValidatesSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(TokenKeyConfig{Secret: "same", TTL: time.Hour}, TokenKeyConfig{Secret: "same", TTL: time.Hour})
	assert.Error(t, err)
	_, err = NewJWTService(TokenKeyConfig{TTL: time.Hour}, TokenKeyConfig{Secret: "r", TTL: time.Hour})
	assert.Error(t, err)
	_, err = NewJWTService(TokenKeyConfig{Secret: "s", TTL: 0}, TokenKeyConfig{Secret: "r", TTL: time.Hour})
	assert.Error(t, err)
}
