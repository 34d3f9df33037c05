package api

import (
	"fmt"      // Message formatting
	"net/http" // HTTP status codes

	"mock_trading/internal/domain"     // Domain models
	"mock_trading/internal/middleware" // Content negotiation
	"mock_trading/internal/service"    // Trading operations

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// OrderRequest is the buy or sell form or JSON body
type OrderRequest struct {
	Symbol   string `json:"symbol" form:"symbol" binding:"required"`          // Ticker symbol
	Quantity int64  `json:"quantity" form:"quantity" binding:"required,gt=0"` // Number of shares
}

// BuyHandler purchases shares at the current price
func BuyHandler(trading *service.TradingService) gin.HandlerFunc {
	return orderHandler(trading, domain.Buy)
}

// SellHandler sells shares at the current price
func SellHandler(trading *service.TradingService) gin.HandlerFunc {
	return orderHandler(trading, domain.Sell)
}

func orderHandler(trading *service.TradingService, side domain.Side) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c) // Set by the session middleware
		if !ok {
			return
		}
		var req OrderRequest // Bind form or JSON request to struct
		if err := c.ShouldBind(&req); err != nil {
			// If binding fails, return bad request
			fail(c, http.StatusBadRequest, "A symbol and a positive whole quantity are required", "/portfolio")
			return
		}
		res, err := trading.Execute(c.Request.Context(), p, domain.Order{Side: side, Symbol: req.Symbol, Quantity: req.Quantity})
		if err != nil {
			if status, msg, ok := statusFor(err); ok {
				fail(c, status, msg, "/portfolio") // Business rejection, nothing changed
				return
			}
			// Details are already logged by the service
			fail(c, http.StatusInternalServerError, "Trade failed", "/portfolio")
			return
		}
		verb := "Bought" // Past tense for the flash message
		if side == domain.Sell {
			verb = "Sold"
		}
		msg := fmt.Sprintf("%s %d shares of %s at %s", verb, res.Trade.Quantity, res.Trade.Symbol, domain.FormatMoney(res.Trade.Price))
		succeed(c, http.StatusOK, gin.H{
			"message": msg,                        // Human readable summary
			"trade":   res.Trade,                  // Ledger entry
			"balance": res.Balance.StringFixed(2), // Balance after the trade
			"holding": res.Holding,                // Position after the trade, null when closed
		}, "/portfolio", msg)
	}
}

// PortfolioHandler shows the user's balance and holdings
func PortfolioHandler(trading *service.TradingService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Loaded by LoadUserMiddleware
		if !ok {
			fail(c, http.StatusUnauthorized, "Unauthorized", "/login")
			return
		}
		pf, err := trading.PortfolioFor(c.Request.Context(), user)
		if err != nil {
			log.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Error("Failed to load portfolio")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load portfolio"})
			return
		}
		if middleware.WantsHTML(c) {
			data := pageData(c, "Portfolio") // Title and flash messages
			data["Portfolio"] = pf
			c.HTML(http.StatusOK, "portfolio", data)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"username":  pf.User.Username,               // Display name
			"balance":   pf.Balance.StringFixed(2),      // Cash balance
			"formatted": domain.FormatMoney(pf.Balance), // Cash balance for display
			"holdings":  pf.Holdings,                    // Open positions by symbol
		})
	}
}
