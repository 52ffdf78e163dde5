package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDKey = contextKey("userID")

// userIDHeader carries the authenticated caller's ID, injected by the
// upstream API gateway after authentication. Authentication itself is not
// this service's concern.
const userIDHeader = "X-User-ID"

// IdentityMiddleware copies the gateway-provided user ID into the Gin
// context and rejects requests without one.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
			return
		}
		c.Set(string(userIDKey), userID)
		c.Next()
	}
}

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}

	return userID, true
}
