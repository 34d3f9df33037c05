package quotes

import (
	"context" // Request scoped cancellation
	"fmt"     // Error wrapping
	"time"    // Durations and timeouts

	"github.com/robfig/cron/v3"  // Cron scheduler
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// SymbolLister lists the symbols worth keeping warm.
type SymbolLister interface {
	HeldSymbols(ctx context.Context) ([]string, error)
}

// Warmer periodically refreshes cached quotes of every held symbol.
type Warmer struct {
	quotes  *Cached
	symbols SymbolLister
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewWarmer returns a Warmer; each run is bounded by timeout.
func NewWarmer(quotes *Cached, symbols SymbolLister, timeout time.Duration, log logrus.FieldLogger) *Warmer {
	return &Warmer{quotes: quotes, symbols: symbols, timeout: timeout, log: log}
}

// Run refreshes every held symbol once and returns how many were refreshed.
// A symbol that fails is logged and skipped.
func (w *Warmer) Run(ctx context.Context) (int, error) {
	symbols, err := w.symbols.HeldSymbols(ctx) // Every symbol someone holds
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return refreshed, ctx.Err() // Run budget exhausted
		}
		if _, err := w.quotes.Refresh(ctx, symbol); err != nil {
			w.log.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("Quote refresh failed")
			continue // Keep warming the rest
		}
		refreshed++
	}
	return refreshed, nil
}

// Start schedules Run on schedule (standard 5 field cron syntax or descriptors
// such as "@every 5m") and starts the scheduler.
func (w *Warmer) Start(schedule string) (*cron.Cron, error) {
	c := cron.New() // Standard 5 field parser
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout) // Bound one pass
		defer cancel()
		n, err := w.Run(ctx)
		if err != nil {
			w.log.WithError(err).Error("Quote cache warm-up failed")
			return
		}
		w.log.WithField("symbols", n).Debug("Quote cache warmed")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	c.Start() // Runs jobs in its own goroutine
	return c, nil
}
