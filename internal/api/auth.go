package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Cookie lifetime

	"mock_trading/internal/domain"     // Domain models
	"mock_trading/internal/middleware" // Session token helpers
	"mock_trading/internal/service"    // Account operations

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RegisterRequest is the registration form or JSON body
type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required"` // Display name
	Email    string `json:"email" form:"email" binding:"required,email"` // Login email
	Password string `json:"password" form:"password" binding:"required"` // Plaintext password
}

// LoginRequest is the login form or JSON body
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`       // Login email
	Password string `json:"password" form:"password" binding:"required"` // Plaintext password
}

// AuthResponse is returned to API clients on login
type AuthResponse struct {
	Token     string       `json:"token"`      // Session token for the Authorization header
	ExpiresIn int          `json:"expires_in"` // Seconds until the session expires
	User      *domain.User `json:"user"`       // Logged in user
}

// pageData is what every HTML page receives
func pageData(c *gin.Context, title string) gin.H {
	return gin.H{
		"Title":   title,              // Page heading
		"Error":   c.Query("error"),   // Flash error from a redirect
		"Message": c.Query("message"), // Flash message from a redirect
	}
}

// RegisterPageHandler renders the registration form
func RegisterPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "register", pageData(c, "Register"))
	}
}

// RegisterHandler creates an account with the starting balance
func RegisterHandler(auth *service.AuthService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind form or JSON request to struct
		if err := c.ShouldBind(&req); err != nil {
			// If binding fails, return bad request
			fail(c, http.StatusBadRequest, "Username, a valid email and a password are required", "/register")
			return
		}
		user, err := auth.Register(c.Request.Context(), service.Registration{
			Username: req.Username, // Display name
			Email:    req.Email,    // Normalized by the service
			Password: req.Password, // Hashed by the service
		})
		if err != nil {
			if errors.Is(err, service.ErrInvalidRegistration) {
				fail(c, http.StatusBadRequest, err.Error(), "/register") // Validation message is safe to show
				return
			}
			if status, msg, ok := statusFor(err); ok {
				fail(c, status, msg, "/register") // Duplicate email goes back to the form
				return
			}
			log.WithFields(logrus.Fields{"email": req.Email, "error": err.Error()}).Error("Registration failed")
			fail(c, http.StatusInternalServerError, "Registration failed", "/register")
			return
		}
		// Return success response
		succeed(c, http.StatusCreated, gin.H{
			"message": "User registered successfully", // Confirmation
			"user":    user,                           // Created user without its hash
		}, "/login", "Registration successful, please log in")
	}
}

// LoginPageHandler renders the login form
func LoginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "login", pageData(c, "Log in"))
	}
}

// LoginHandler authenticates a user and starts a session
func LoginHandler(auth *service.AuthService, ttl time.Duration, secureCookie bool, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind form or JSON request to struct
		if err := c.ShouldBind(&req); err != nil {
			fail(c, http.StatusBadRequest, "Email and password are required", "/login")
			return
		}
		token, user, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if status, msg, ok := statusFor(err); ok {
				fail(c, status, msg, "/login") // Same answer for unknown email and wrong password
				return
			}
			log.WithField("error", err.Error()).Error("Login failed")
			fail(c, http.StatusInternalServerError, "Login failed", "/login")
			return
		}
		// Set the session cookie for browsers
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, token, int(ttl.Seconds()), "/", "", secureCookie, true)
		if middleware.WantsHTML(c) {
			c.Redirect(http.StatusSeeOther, "/portfolio") // Browser flow
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, ExpiresIn: int(ttl.Seconds()), User: user})
	}
}

// LogoutHandler ends the current session. It succeeds without one.
func LogoutHandler(auth *service.AuthService, secureCookie bool, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := middleware.TokenFromRequest(c) // May be empty
		// Clear the cookie whatever happens next
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", secureCookie, true)
		if err := auth.Logout(c.Request.Context(), token); err != nil {
			log.WithField("error", err.Error()).Error("Logout failed")
			fail(c, http.StatusInternalServerError, "Logout failed", "/login")
			return
		}
		succeed(c, http.StatusOK, gin.H{"message": "Logged out"}, "/login", "You have been logged out")
	}
}
