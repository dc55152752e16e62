package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when the configured lifetime is not positive.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token expired")
)

// Claims is the token payload: {sub, role, exp} plus iat.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectChecker reports whether a token subject still exists.
type SubjectChecker interface {
	SubjectExists(ctx context.Context, id uint) (bool, error)
}

// TokenService signs and verifies HS256 identity tokens. It holds no mutable
// state; the secret is copied at construction and never changes.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	subjects SubjectChecker
}

type Option func(*TokenService)

// WithClock replaces time.Now, for issuing and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// WithSubjectChecker makes Verify reject tokens whose subject was deleted.
func WithSubjectChecker(c SubjectChecker) Option {
	return func(s *TokenService) { s.subjects = c }
}

func NewTokenService(secret string, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: empty token secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the lifetime given to issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for id that expires after the configured TTL.
func (s *TokenService) Issue(id Identity) (string, error) {
	if !id.Role.Valid() {
		return "", ErrInvalidToken
	}
	now := s.now()
	claims := Claims{
		Role: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.SubjectID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, structure and expiry and returns the identity as
// it was issued. The role is not re-read from storage.
func (s *TokenService) Verify(ctx context.Context, raw string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrExpired
	default:
		return Identity{}, ErrInvalidToken
	}

	sub, err := strconv.ParseUint(claims.Subject, 10, 0)
	if err != nil || sub == 0 {
		return Identity{}, ErrInvalidToken
	}
	id := Identity{SubjectID: uint(sub), Role: Role(claims.Role)}
	if !id.Role.Valid() {
		return Identity{}, ErrInvalidToken
	}

	if s.subjects != nil {
		ok, err := s.subjects.SubjectExists(ctx, id.SubjectID)
		if err != nil {
			return Identity{}, err
		}
		if !ok {
			return Identity{}, ErrInvalidToken
		}
	}
	return id, nil
}
