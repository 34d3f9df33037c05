package api

import (
	"time" // CORS preflight cache

	"mock_trading/internal/middleware" // Session and logging middleware
	"mock_trading/internal/service"    // Application services

	"github.com/gin-contrib/cors" // CORS middleware
	"github.com/gin-gonic/gin"    // Gin web framework
	"github.com/sirupsen/logrus"  // Logrus for structured logging
)

// Deps are the collaborators of the HTTP layer
type Deps struct {
	Auth          *service.AuthService
	Trading       *service.TradingService
	Sessions      middleware.SessionResolver
	Users         middleware.UserFinder
	Log           logrus.FieldLogger
	SessionTTL    time.Duration
	SecureCookies bool     // Send the session cookie over HTTPS only
	CORSOrigins   []string // Empty disables CORS
}

// NewRouter builds the gin engine with every route of the platform
func NewRouter(d Deps) *gin.Engine {
	r := gin.New() // Gin router instance
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,                                       // Configured front ends
			AllowMethods:     []string{"GET", "POST"},                             // Only methods the API uses
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"}, // Bearer tokens and JSON bodies
			AllowCredentials: true,                                                // Session cookie
			MaxAge:           12 * time.Hour,                                      // Preflight cache
		}))
	}
	LoadTemplates(r)

	r.GET("/", HealthHandler()) // Health check

	// Account routes
	r.GET("/register", RegisterPageHandler())                                    // Registration form
	r.POST("/register", RegisterHandler(d.Auth, d.Log))                          // Registration endpoint
	r.GET("/login", LoginPageHandler())                                          // Login form
	r.POST("/login", LoginHandler(d.Auth, d.SessionTTL, d.SecureCookies, d.Log)) // Login endpoint
	logout := LogoutHandler(d.Auth, d.SecureCookies, d.Log)
	r.GET("/logout", logout)  // Logout link
	r.POST("/logout", logout) // Logout endpoint

	// Trading routes (protected by session)
	authed := r.Group("/")
	authed.Use(middleware.SessionMiddleware(d.Sessions, d.Log), middleware.LoadUserMiddleware(d.Users, d.Log))
	authed.POST("/buy", BuyHandler(d.Trading))                           // Buy endpoint
	authed.POST("/sell", SellHandler(d.Trading))                         // Sell endpoint
	authed.GET("/portfolio", PortfolioHandler(d.Trading, d.Log))         // Portfolio endpoint
	authed.GET("/price-history/:symbol", PriceHistoryHandler(d.Trading)) // Price history chart
	authed.GET("/price/:symbol", QuoteHandler(d.Trading))                // Latest price
	authed.GET("/trades", TradesHandler(d.Trading, d.Log))               // Trade ledger
	return r
}
