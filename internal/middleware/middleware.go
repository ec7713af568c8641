package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/elliewren/caption-gallery/backend/internal/session"
)

const identityKey = "identity"

// AuthMiddleware resolves the session token (cookie first, then Authorization
// bearer) into an Identity and aborts with 401 when neither verifies.
func AuthMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if cookie, err := c.Cookie(session.CookieName); err == nil {
			token = cookie
		}
		if token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		ident, err := sessions.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// CurrentIdentity returns the identity set by AuthMiddleware, or nil on
// unauthenticated requests.
func CurrentIdentity(c *gin.Context) *session.Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	ident, ok := v.(session.Identity)
	if !ok {
		return nil
	}
	return &ident
}
