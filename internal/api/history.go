package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"mock_trading/internal/domain"     // Domain models
	"mock_trading/internal/middleware" // Content negotiation
	"mock_trading/internal/service"    // Trading operations

	"github.com/gin-gonic/gin"                   // Gin web framework
	"github.com/go-echarts/go-echarts/v2/charts" // Chart builders
	"github.com/go-echarts/go-echarts/v2/opts"   // Chart options
	"github.com/sirupsen/logrus"                 // Logrus for structured logging
)

// QuoteHandler returns the latest price of a symbol
func QuoteHandler(trading *service.TradingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sym, price, err := trading.Quote(c.Request.Context(), c.Param("symbol"))
		if err != nil {
			if errors.Is(err, domain.ErrPriceUnavailable) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()}) // Unknown symbol or API down
				return
			}
			status, msg, _ := statusFor(err) // Only domain errors reach here
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"symbol":    sym,                       // Normalized ticker
			"price":     price,                     // Latest price
			"formatted": domain.FormatMoney(price), // Price for display
		})
	}
}

// PriceHistoryHandler renders a line chart of daily closes, or the points as JSON
func PriceHistoryHandler(trading *service.TradingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sym, points, err := trading.PriceHistory(c.Request.Context(), c.Param("symbol"))
		if err != nil {
			status, msg, _ := statusFor(err) // Invalid symbol or no history
			fail(c, status, msg, "/portfolio")
			return
		}
		if !middleware.WantsHTML(c) {
			c.JSON(http.StatusOK, gin.H{"symbol": sym, "points": points})
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := historyChart(sym, points).Render(c.Writer); err != nil {
			c.Error(err) // Headers are already sent
		}
	}
}

// historyChart plots closes against dates, oldest first
func historyChart(sym string, points []domain.PricePoint) *charts.Line {
	dates := make([]string, len(points))         // X axis
	closes := make([]opts.LineData, len(points)) // Y values
	for i, p := range points {
		dates[i] = p.Date
		closes[i] = opts.LineData{Value: p.Close.InexactFloat64()}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: sym + " price history", Width: "960px"}),
		charts.WithTitleOpts(opts.Title{Title: "Price history for " + sym}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Close", Scale: opts.Bool(true)}),
	)
	line.SetXAxis(dates).AddSeries(sym, closes)
	return line
}

// TradesHandler returns the user's trade ledger, newest first
func TradesHandler(trading *service.TradingService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c) // Set by the session middleware
		if !ok {
			return
		}
		page, pageSize := pageParams(c, service.DefaultPageSize, service.MaxPageSize) // Read pagination
		res, err := trading.Trades(c.Request.Context(), p, page, pageSize)
		if err != nil {
			log.WithFields(logrus.Fields{"user_id": p.UserID, "error": err.Error()}).Error("Failed to list trades")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trades"})
			return
		}
		// The total number of pages
		totalPages := (int(res.Total) + res.PageSize - 1) / res.PageSize
		c.JSON(http.StatusOK, gin.H{
			"trades":      res.Trades,   // Trades on this page
			"page":        res.Page,     // Current page
			"page_size":   res.PageSize, // Page size
			"total":       res.Total,    // Total number of trades
			"total_pages": totalPages,   // Total pages
		})
	}
}
