package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// HealthMessage is the body of the health check
const HealthMessage = "Mock Trading Platform is up and running!"

// HealthHandler reports that the server is alive
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, HealthMessage)
	}
}
