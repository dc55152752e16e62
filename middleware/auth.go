// auth.go - Access gate: bearer token authentication and role checks
//
// Authentication comes in two flavours:
//   - Required: absent, malformed, invalid or expired tokens fail with 401.
//   - Optional: the same conditions resolve to an anonymous caller, used by
//     public endpoints such as store browsing.
//
// Authorization is a single-role check against the role carried in the token.

package middleware // Declares the package name

import ( // Import required packages
	"context" // Request context for subject lookups
	"errors"  // Token error inspection
	"strings" // Header parsing

	"go-ratings-backend/apperror" // Error kinds and HTTP statuses
	"go-ratings-backend/auth"     // Token verification and identities

	"github.com/gin-gonic/gin"  // Gin web framework (for middleware)
	"github.com/rs/zerolog/log" // Structured logging
)

const (
	identityKey  = "identity"  // gin context key for the authenticated identity
	principalKey = "principal" // gin context key for optional-auth results
	bearerPrefix = "Bearer "
)

// Verifier resolves a raw token into an identity.
type Verifier interface {
	Verify(ctx context.Context, raw string) (auth.Identity, error)
}

// Principal is the result of optional authentication: either an
// authenticated identity or an anonymous caller.
type Principal struct {
	Identity      auth.Identity
	Authenticated bool
}

// Anonymous is the principal of a caller without a usable token.
var Anonymous = Principal{}

// SubjectID returns the caller id, or nil for anonymous callers.
func (p Principal) SubjectID() *uint {
	if !p.Authenticated {
		return nil
	}
	id := p.Identity.SubjectID
	return &id
}

// Gate authenticates requests against a token verifier.
type Gate struct {
	tokens Verifier
}

func NewGate(tokens Verifier) *Gate {
	return &Gate{tokens: tokens}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return tok, tok != ""
}

// AuthenticateOptional never fails: any problem with the header yields Anonymous.
func (g *Gate) AuthenticateOptional(ctx context.Context, header string) Principal {
	tok, ok := bearerToken(header)
	if !ok {
		return Anonymous
	}
	id, err := g.tokens.Verify(ctx, tok)
	if err != nil {
		if !isTokenError(err) {
			log.Warn().Err(err).Msg("optional auth: token verification failed")
		}
		return Anonymous
	}
	return Principal{Identity: id, Authenticated: true}
}

// AuthenticateRequired fails with Unauthenticated for absent, malformed,
// invalid or expired tokens.
func (g *Gate) AuthenticateRequired(ctx context.Context, header string) (auth.Identity, error) {
	tok, ok := bearerToken(header)
	if !ok {
		return auth.Identity{}, apperror.E(apperror.Unauthenticated, "missing or invalid token")
	}
	id, err := g.tokens.Verify(ctx, tok)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, auth.ErrExpired):
		return auth.Identity{}, apperror.Wrap(apperror.Unauthenticated, "token expired", err)
	case errors.Is(err, auth.ErrInvalidToken):
		return auth.Identity{}, apperror.Wrap(apperror.Unauthenticated, "invalid token", err)
	default:
		return auth.Identity{}, apperror.NewInternal(err)
	}
}

// RequireRole fails with Forbidden unless id carries exactly role.
func RequireRole(id auth.Identity, role auth.Role) (auth.Identity, error) {
	if id.Role != role {
		return id, apperror.E(apperror.Forbidden, string(role)+" access required")
	}
	return id, nil
}

func isTokenError(err error) bool {
	return errors.Is(err, auth.ErrExpired) || errors.Is(err, auth.ErrInvalidToken)
}

// Required returns a Gin middleware that rejects unauthenticated requests and
// stores the identity for later handlers.
func (g *Gate) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.AuthenticateRequired(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Set(principalKey, Principal{Identity: id, Authenticated: true})
		c.Next()
	}
}

// Optional returns a Gin middleware that resolves the caller without ever
// rejecting the request.
func (g *Gate) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := g.AuthenticateOptional(c.Request.Context(), c.GetHeader("Authorization"))
		c.Set(principalKey, p)
		if p.Authenticated {
			c.Set(identityKey, p.Identity)
		}
		c.Next()
	}
}

// TokenFromQuery copies the named query parameter into the Authorization
// header when the header is absent. Browsers cannot set headers on
// websocket upgrades.
func TokenFromQuery(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if tok := c.Query(param); tok != "" {
				c.Request.Header.Set("Authorization", bearerPrefix+tok)
			}
		}
		c.Next()
	}
}

// Role returns a Gin middleware enforcing role. It must run after Required.
func Role(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abortWithError(c, apperror.E(apperror.Unauthenticated, "authentication required"))
			return
		}
		if _, err := RequireRole(id, role); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Required or Optional.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// PrincipalFrom returns the caller resolved by Optional or Required,
// Anonymous when neither ran.
func PrincipalFrom(c *gin.Context) Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Anonymous
}

func abortWithError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.Internal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(apperror.Status(kind), gin.H{"error": apperror.Message(err)})
}
