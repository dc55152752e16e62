package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type subjectSet map[uint]bool

func (s subjectSet) SubjectExists(_ context.Context, id uint) (bool, error) {
	return s[id], nil
}

func newService(t *testing.T, clock *fakeClock, opts ...Option) *TokenService {
	t.Helper()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	svc, err := NewTokenService(testSecret, time.Hour, opts...)
	require.NoError(t, err)
	return svc
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, clock)

	tok, err := svc.Issue(Identity{SubjectID: 7, Role: RoleOwner})
	require.NoError(t, err)

	id, err := svc.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{SubjectID: 7, Role: RoleOwner}, id)
}

func TestIssueIsDeterministic(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, clock)

	a, err := svc.Issue(Identity{SubjectID: 3, Role: RoleUser})
	require.NoError(t, err)
	b, err := svc.Issue(Identity{SubjectID: 3, Role: RoleUser})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestVerifyExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, clock)
	tok, err := svc.Issue(Identity{SubjectID: 7, Role: RoleOwner})
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour - time.Second)
	_, err = svc.Verify(context.Background(), tok)
	assert.NoError(t, err)

	// exactly at the embedded expiry counts as expired
	clock.t = clock.t.Add(time.Second)
	_, err = svc.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, ErrExpired)

	clock.t = clock.t.Add(24 * time.Hour)
	_, err = svc.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyTamperedSignature(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, clock)
	tok, err := svc.Issue(Identity{SubjectID: 7, Role: RoleOwner})
	require.NoError(t, err)

	sigStart := strings.LastIndex(tok, ".") + 1
	b := []byte(tok)
	if b[sigStart] == 'A' {
		b[sigStart] = 'B'
	} else {
		b[sigStart] = 'A'
	}

	_, err = svc.Verify(context.Background(), string(b))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejects(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, clock)

	otherKey, err := NewTokenService("another-secret", time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	foreign, err := otherKey.Issue(Identity{SubjectID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(clock.t.Add(time.Hour))

	cases := map[string]string{
		"garbage":       "not-a-token",
		"empty":         "",
		"wrong secret":  foreign,
		"alg none":      sign(Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp}}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		"missing exp":   sign(Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}, jwt.SigningMethodHS256, []byte(testSecret)),
		"bad subject":   sign(Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "abc", ExpiresAt: exp}}, jwt.SigningMethodHS256, []byte(testSecret)),
		"unknown role":  sign(Claims{Role: "root", RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp}}, jwt.SigningMethodHS256, []byte(testSecret)),
		"hs512 variant": sign(Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp}}, jwt.SigningMethodHS512, []byte(testSecret)),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyDeletedSubject(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	subjects := subjectSet{1: true}
	svc := newService(t, clock, WithSubjectChecker(subjects))

	live, err := svc.Issue(Identity{SubjectID: 1, Role: RoleUser})
	require.NoError(t, err)
	gone, err := svc.Issue(Identity{SubjectID: 2, Role: RoleUser})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), live)
	assert.NoError(t, err)
	_, err = svc.Verify(context.Background(), gone)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifySubjectCheckerFailure(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	boom := errors.New("db down")
	svc := newService(t, clock, WithSubjectChecker(failingChecker{boom}))

	tok, err := svc.Issue(Identity{SubjectID: 1, Role: RoleUser})
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, boom)
}

type failingChecker struct{ err error }

func (f failingChecker) SubjectExists(context.Context, uint) (bool, error) { return false, f.err }

func TestNewTokenServiceDefaults(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)

	svc, err := NewTokenService("s", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, svc.TTL())

	_, err = svc.Issue(Identity{SubjectID: 1, Role: "root"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	digest, err := h.Hash("Secret#123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret#123", digest)
	assert.True(t, h.Verify("Secret#123", digest))
	assert.False(t, h.Verify("secret#123", digest))
}
