package ports

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) bool
}

// TokenKind selects the secret and lifetime a token is signed with.
type TokenKind string

const (
	TokenKindSession TokenKind = "session"
	TokenKindReset   TokenKind = "reset"
)

// TokenClaims is the decoded payload. Role is empty on reset tokens.
type TokenClaims struct {
	Subject   uuid.UUID   `json:"sub"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role,omitempty"`
	IssuedAt  time.Time   `json:"iat"`
	ExpiresAt time.Time   `json:"exp"`
}

// TokenService issues and verifies kind-scoped bearer tokens.
// Verify returns domain.ErrTokenExpired or domain.ErrInvalidToken.
type TokenService interface {
	Issue(kind TokenKind, claims TokenClaims) (string, TokenClaims, error)
	Verify(kind TokenKind, token string) (TokenClaims, error)
}
