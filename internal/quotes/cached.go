package quotes

import (
	"context" // Request scoped cancellation
	"time"    // Durations and timeouts

	"mock_trading/internal/domain" // Domain models
	"mock_trading/internal/utils"  // Utility functions

	"github.com/shopspring/decimal" // Decimal money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
)

// Cached is a read-through Redis cache in front of a Source. Cache errors are
// logged and the Source is used instead.
type Cached struct {
	src        Source             // Upstream price source
	cache      *utils.JSONCache   // Redis JSON cache
	quoteTTL   time.Duration      // Lifetime of a cached quote
	historyTTL time.Duration      // Lifetime of a cached series
	log        logrus.FieldLogger // Logger for cache faults
}

var _ Source = (*Cached)(nil)

// NewCached wraps src with cache.
func NewCached(src Source, cache *utils.JSONCache, quoteTTL, historyTTL time.Duration, log logrus.FieldLogger) *Cached {
	return &Cached{src: src, cache: cache, quoteTTL: quoteTTL, historyTTL: historyTTL, log: log}
}

func quoteKey(symbol string) string   { return "quote:" + symbol }
func historyKey(symbol string) string { return "history:" + symbol }

// Quote implements Source.
func (c *Cached) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var price decimal.Decimal
	found, err := c.cache.Get(ctx, quoteKey(symbol), &price)
	if err != nil {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("Quote cache read failed")
	}
	if found {
		return price, nil // Cache hit
	}
	return c.Refresh(ctx, symbol) // Cache miss or Redis down
}

// Refresh fetches the latest price from the Source and caches it.
func (c *Cached) Refresh(ctx context.Context, symbol string) (decimal.Decimal, error) {
	price, err := c.src.Quote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err // Failures are never cached
	}
	if err := c.cache.Set(ctx, quoteKey(symbol), price, c.quoteTTL); err != nil {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("Quote cache write failed")
	}
	return price, nil
}

// History implements Source.
func (c *Cached) History(ctx context.Context, symbol string) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	found, err := c.cache.Get(ctx, historyKey(symbol), &points)
	if err != nil {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("History cache read failed")
	}
	if found && len(points) > 0 {
		return points, nil // Cache hit
	}
	points, err = c.src.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, historyKey(symbol), points, c.historyTTL); err != nil {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("History cache write failed")
	}
	return points, nil
}
