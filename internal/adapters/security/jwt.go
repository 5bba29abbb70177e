package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

// TokenKeyConfig is the secret and lifetime for one token kind.
type TokenKeyConfig struct {
	Secret string
	TTL    time.Duration
}

// JWTService signs HS256 tokens with a distinct secret per kind, so a reset
// token never verifies as a session token and vice versa.
type JWTService struct {
	keys  map[ports.TokenKind]TokenKeyConfig
	nowFn func() time.Time
}

// NewJWTService builds the service from the session and reset key configs.
func NewJWTService(session, reset TokenKeyConfig) (*JWTService, error) {
	if session.Secret == "" || reset.Secret == "" {
		return nil, errors.New("jwt session and reset secrets are required")
	}
	if session.Secret == reset.Secret {
		return nil, errors.New("jwt session and reset secrets must differ")
	}
	if session.TTL <= 0 || reset.TTL <= 0 {
		return nil, errors.New("jwt token lifetimes must be positive")
	}
	return &JWTService{
		keys: map[ports.TokenKind]TokenKeyConfig{
			ports.TokenKindSession: session,
			ports.TokenKindReset:   reset,
		},
		nowFn: time.Now,
	}, nil
}

// WithClock replaces the clock used for iat/exp and expiry checks.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.nowFn = now
	return s
}

func (s *JWTService) Issue(kind ports.TokenKind, claims ports.TokenClaims) (string, ports.TokenClaims, error) {
	key, ok := s.keys[kind]
	if !ok {
		return "", ports.TokenClaims{}, fmt.Errorf("unknown token kind %q", kind)
	}
	if kind == ports.TokenKindReset {
		claims.Role = ""
	}
	return issueToken(s.nowFn(), kind, claims, key.Secret, key.TTL)
}

func (s *JWTService) Verify(kind ports.TokenKind, raw string) (ports.TokenClaims, error) {
	key, ok := s.keys[kind]
	if !ok {
		return ports.TokenClaims{}, domain.ErrInvalidToken
	}
	return verifyToken(s.nowFn, kind, raw, key.Secret)
}

// IssueToken signs claims with secret, expiring ttl from now.
func IssueToken(kind ports.TokenKind, claims ports.TokenClaims, secret string, ttl time.Duration) (string, ports.TokenClaims, error) {
	return issueToken(time.Now(), kind, claims, secret, ttl)
}

type bearerClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

func issueToken(now time.Time, kind ports.TokenKind, claims ports.TokenClaims, secret string, ttl time.Duration) (string, ports.TokenClaims, error) {
	if claims.Subject == uuid.Nil {
		return "", ports.TokenClaims{}, errors.New("token subject is required")
	}
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, bearerClaims{
		Email: claims.Email,
		Role:  claims.Role.String(),
		Kind:  string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject.String(),
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", ports.TokenClaims{}, fmt.Errorf("sign token: %w", err)
	}
	claims.IssuedAt = issuedAt.Time.UTC()
	claims.ExpiresAt = expiresAt.Time.UTC()
	return signed, claims, nil
}

func verifyToken(now func() time.Time, kind ports.TokenKind, raw, secret string) (ports.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &bearerClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, domain.ErrTokenExpired
		}
		return ports.TokenClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*bearerClaims)
	if !ok || !parsed.Valid {
		return ports.TokenClaims{}, domain.ErrInvalidToken
	}
	if claims.Kind != string(kind) {
		return ports.TokenClaims{}, fmt.Errorf("%w: wrong token kind", domain.ErrInvalidToken)
	}
	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ports.TokenClaims{}, fmt.Errorf("%w: bad subject", domain.ErrInvalidToken)
	}

	out := ports.TokenClaims{
		Subject:   subject,
		Email:     claims.Email,
		Role:      domain.Role(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
