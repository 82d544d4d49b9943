// Package middleware holds the gin middleware guarding the HTTP surface:
// bearer authentication, tenant scoping, and device admission.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"timetrack-auth/internal/authctx"
	"timetrack-auth/internal/blacklist"
	"timetrack-auth/internal/security"
)

const authContextKey = "authContext"

// ResolveFunc loads the live account behind a verified token payload.
// It must fail for deleted or deactivated subjects.
type ResolveFunc func(c *gin.Context, payload security.Payload) (*authctx.AuthContext, error)

// Auth validates the Authorization header and attaches the resolved identity.
type Auth struct {
	tokens    *security.TokenProvider
	blacklist *blacklist.Blacklist
	resolver  ResolveFunc
}

// NewAuth returns the bearer-token middleware.
func NewAuth(tokens *security.TokenProvider, bl *blacklist.Blacklist, resolve ResolveFunc) *Auth {
	return &Auth{tokens: tokens, blacklist: bl, resolver: resolve}
}

// RequireAuth ensures the request carries a valid, non-revoked bearer token
// whose subject still exists. On success the identity is attached to both the
// gin context and the request context.
func (m *Auth) RequireAuth(c *gin.Context) {
	token, ok := BearerToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Bearer token required."})
		return
	}
	if m.blacklist.IsBlacklisted(token) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_revoked", "error_description": "Token has been revoked."})
		return
	}
	payload, err := m.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_expired", "error_description": "Token has expired."})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid access token."})
		return
	}
	auth, err := m.resolver(c, payload)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Identity no longer valid."})
		return
	}
	auth.Token = token
	SetAuthContext(c, auth)
	c.Next()
}

// SetAuthContext attaches the identity to the gin context and the request context.
func SetAuthContext(c *gin.Context, auth *authctx.AuthContext) {
	c.Set(authContextKey, auth)
	c.Request = c.Request.WithContext(authctx.WithAuth(c.Request.Context(), auth))
}

// GetAuthContext returns the identity RequireAuth attached, if any.
func GetAuthContext(c *gin.Context) (*authctx.AuthContext, bool) {
	value, ok := c.Get(authContextKey)
	if !ok {
		return nil, false
	}
	auth, ok := value.(*authctx.AuthContext)
	return auth, ok
}

// BearerToken extracts the bearer credential from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
