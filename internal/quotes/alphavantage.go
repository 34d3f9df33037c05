// Package quotes looks up stock prices from an Alpha Vantage compatible API.
package quotes

import (
	"context"       // Request scoped cancellation
	"encoding/json" // JSON decoding
	"errors"        // Error inspection
	"fmt"           // Error wrapping
	"io"            // Response body reading
	"net/http"      // HTTP client
	"net/url"       // Query encoding
	"sort"          // Ordering history points
	"time"          // Durations and timeouts

	"mock_trading/internal/domain" // Domain models

	"github.com/PaesslerAG/jsonpath" // JSONPath extraction
	"github.com/shopspring/decimal"  // Decimal money
	"github.com/sirupsen/logrus"     // Logrus for structured logging
)

// ErrNoData is returned when the API answers without the expected payload,
// e.g. for unknown symbols or when the rate limit note replaces the data.
var ErrNoData = errors.New("no price data")

// Source provides latest prices and daily closes for a symbol.
type Source interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
	History(ctx context.Context, symbol string) ([]domain.PricePoint, error)
}

const quotePricePath = `$["Global Quote"]["05. price"]`

// AlphaVantage is a Source backed by the Alpha Vantage query API.
type AlphaVantage struct {
	baseURL string             // Query endpoint
	apiKey  string             // API key sent with every request
	client  *http.Client       // Client with the per request timeout
	log     logrus.FieldLogger // Logger for API faults
}

var _ Source = (*AlphaVantage)(nil)

// NewAlphaVantage returns a client for baseURL whose requests are bounded by timeout.
func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration, log logrus.FieldLogger) *AlphaVantage {
	return &AlphaVantage{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Quote returns the latest traded price of symbol.
func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	body, err := a.query(ctx, "GLOBAL_QUOTE", symbol)
	if err != nil {
		return decimal.Zero, err
	}
	var doc any // Generic document for jsonpath
	if err := json.Unmarshal(body, &doc); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	v, err := jsonpath.Get(quotePricePath, doc)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	raw, ok := v.(string) // Alpha Vantage quotes numbers as strings
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: price is %T", ErrNoData, v)
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: bad price %q", ErrNoData, raw)
	}
	return price, nil
}

type dailySeries struct {
	Series map[string]struct {
		Close string `json:"4. close"`
	} `json:"Time Series (Daily)"`
}

// History returns the daily closes of symbol, oldest first.
func (a *AlphaVantage) History(ctx context.Context, symbol string) ([]domain.PricePoint, error) {
	body, err := a.query(ctx, "TIME_SERIES_DAILY", symbol)
	if err != nil {
		return nil, err
	}
	var payload dailySeries
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	points := make([]domain.PricePoint, 0, len(payload.Series))
	for date, day := range payload.Series {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			continue // Skip malformed dates
		}
		closePrice, err := decimal.NewFromString(day.Close)
		if err != nil {
			continue // Skip malformed closes
		}
		points = append(points, domain.PricePoint{Date: date, Close: closePrice})
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date }) // Oldest first
	return points, nil
}

func (a *AlphaVantage) query(ctx context.Context, function, symbol string) ([]byte, error) {
	params := url.Values{} // Build query string
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close() // Always release the connection

	if resp.StatusCode != http.StatusOK {
		a.log.WithFields(logrus.Fields{"function": function, "symbol": symbol, "status": resp.StatusCode}).Warn("Price API returned an error status")
		return nil, fmt.Errorf("%w: status %d", ErrNoData, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20)) // Daily series fit well below 8 MiB
	if err != nil {
		return nil, fmt.Errorf("failed to read price response: %w", err)
	}
	return body, nil
}
