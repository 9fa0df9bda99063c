package session

import (
	"net/http"

	"chatkeep/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	snapshotContextKey = "session_snapshot"
	tokenContextKey    = "session_token"
)

// Middleware resolves the session cookie and stores the snapshot in the
// request context. Requests without an authenticated session are aborted
// before any other component is touched.
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.cookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		snap, err := s.Get(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(snapshotContextKey, snap)
		c.Set(tokenContextKey, token)
		c.Next()
	}
}

// FromContext retrieves the snapshot stored by the middleware.
func FromContext(c *gin.Context) (*models.Session, bool) {
	val, ok := c.Get(snapshotContextKey)
	if !ok {
		return nil, false
	}
	snap, ok := val.(*models.Session)
	return snap, ok
}

// TokenFromContext retrieves the raw token captured by the middleware.
func TokenFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(tokenContextKey)
	if !ok {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}
