package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"haul/internal/auth"
)

// sessionKey is the gin context key under which the verified session lives.
const sessionKey = "session"

// RequireAuth returns middleware that verifies the bearer token and stores
// the resulting session in the request context. Requests without a valid
// token are rejected with 401.
func RequireAuth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		session, err := tokens.Verify(strings.TrimPrefix(header, prefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireRole returns middleware that restricts a route group to one side of
// the marketplace. It must run after RequireAuth.
func RequireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFrom(c)
		if session == nil || session.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "wrong role for this resource"})
			return
		}
		c.Next()
	}
}

// RequireAdminToken returns middleware gating operator-only routes behind a
// shared secret header. An empty configured token disables the routes
// entirely rather than leaving them open.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Admin-Token") != token {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin token required"})
			return
		}
		c.Next()
	}
}

// SessionFrom returns the verified session stored by RequireAuth, or nil on
// unauthenticated routes.
func SessionFrom(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, ok := v.(*auth.Session)
	if !ok {
		return nil
	}
	return session
}
