package middleware

import (
	"context"  // Context for session lookups
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"mock_trading/internal/domain" // Domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const (
	SessionCookie = "session"   // Cookie carrying the session token
	principalKey  = "principal" // Context key of the resolved principal
)

// SessionResolver turns a session token into the principal it belongs to
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (domain.Principal, error)
}

// TokenFromRequest returns the session token from the Authorization header or the session cookie
func TokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ") // Bearer token wins over the cookie
	}
	token, err := c.Cookie(SessionCookie) // Fall back to the browser cookie
	if err != nil {
		return ""
	}
	return token
}

// WantsHTML reports whether the client prefers an HTML page over JSON
func WantsHTML(c *gin.Context) bool {
	if c.ContentType() == gin.MIMEJSON {
		return false // JSON bodies come from API clients
	}
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}

// SessionMiddleware requires a live session and stores its principal in the context
func SessionMiddleware(sessions SessionResolver, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c) // Read token from header or cookie
		if token == "" {
			abortUnauthenticated(c, "Missing session") // No credentials at all
			return
		}
		principal, err := sessions.Resolve(c.Request.Context(), token) // Check the session in Redis
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				// Store failures are logged; the client still just sees 401
				log.WithFields(logrus.Fields{"path": c.FullPath(), "error": err.Error()}).Error("Session lookup failed")
			}
			abortUnauthenticated(c, "Invalid or expired session")
			return
		}
		c.Set(principalKey, principal)    // Store principal in context
		c.Set("userID", principal.UserID) // Store userID in context
		c.Next()                          // Proceed to the next handler
	}
}

// CurrentPrincipal returns the principal stored by SessionMiddleware
func CurrentPrincipal(c *gin.Context) (domain.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

// abortUnauthenticated sends browsers to the login page and API clients a 401
func abortUnauthenticated(c *gin.Context, msg string) {
	if WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/login") // Browser flow
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
