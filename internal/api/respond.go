package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"net/url"  // Query encoding for redirects
	"strconv"  // String conversion

	"mock_trading/internal/domain"     // Domain errors
	"mock_trading/internal/middleware" // Content negotiation

	"github.com/gin-gonic/gin" // Gin web framework
)

// fail answers an error. API clients get the status and message, browsers are
// redirected to redirectTo with the message in the error query parameter.
func fail(c *gin.Context, status int, msg, redirectTo string) {
	if middleware.WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, withQuery(redirectTo, "error", msg))
		return
	}
	c.JSON(status, gin.H{"error": msg})
}

// succeed answers a mutation. Browsers are redirected with a message.
func succeed(c *gin.Context, status int, body gin.H, redirectTo, msg string) {
	if middleware.WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, withQuery(redirectTo, "message", msg))
		return
	}
	c.JSON(status, body)
}

func withQuery(path, key, value string) string {
	if value == "" {
		return path
	}
	return path + "?" + url.Values{key: {value}}.Encode()
}

// statusFor maps domain errors to an HTTP status and a message safe to show.
// ok is false for unexpected errors, which must be logged by the caller.
func statusFor(err error) (status int, msg string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder), errors.Is(err, domain.ErrInvalidSymbol):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, domain.ErrInsufficientBalance.Error(), true
	case errors.Is(err, domain.ErrInsufficientShares):
		return http.StatusUnprocessableEntity, domain.ErrInsufficientShares.Error(), true
	case errors.Is(err, domain.ErrPriceUnavailable):
		return http.StatusUnprocessableEntity, domain.ErrPriceUnavailable.Error(), true
	case errors.Is(err, domain.ErrHistoryUnavailable):
		return http.StatusNotFound, domain.ErrHistoryUnavailable.Error(), true
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, domain.ErrEmailTaken.Error(), true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error(), true
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized", true
	}
	return http.StatusInternalServerError, "", false
}

// pageParams reads page and page_size, keeping the defaults on bad input
func pageParams(c *gin.Context, defaultSize, maxSize int) (page, pageSize int) {
	page = 1               // Default page number
	pageSize = defaultSize // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= maxSize {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// principal returns the session principal or answers 401 itself
func principal(c *gin.Context) (domain.Principal, bool) {
	p, exists := middleware.CurrentPrincipal(c)
	if !exists {
		fail(c, http.StatusUnauthorized, "Unauthorized", "/login")
	}
	return p, exists
}
