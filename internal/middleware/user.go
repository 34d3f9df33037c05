package middleware

import (
	"context"  // Context for store lookups
	"net/http" // HTTP status codes

	"mock_trading/internal/domain" // Domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const userKey = "user" // Context key of the loaded user

// UserFinder loads users by id
type UserFinder interface {
	FindUserByID(ctx context.Context, id uint) (*domain.User, error)
}

// LoadUserMiddleware checks on each request that the session's user still exists
func LoadUserMiddleware(users UserFinder, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := CurrentPrincipal(c) // Set by SessionMiddleware
		// Check if principal exists in context
		if !exists {
			abortUnauthenticated(c, "Unauthorized")
			return
		}
		user, err := users.FindUserByID(c.Request.Context(), principal.UserID) // Fetch user from database
		if err != nil {
			log.WithFields(logrus.Fields{"user_id": principal.UserID, "error": err.Error()}).Error("Failed to load user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}
		// The account may have been removed while the session was alive
		if user == nil {
			abortUnauthenticated(c, "Unauthorized")
			return
		}
		c.Set(userKey, *user) // Store user in context
		c.Next()              // Proceed to the next handler
	}
}

// CurrentUser returns the user stored by LoadUserMiddleware
func CurrentUser(c *gin.Context) (domain.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	return u, ok
}
