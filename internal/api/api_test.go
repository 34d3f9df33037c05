package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"mock_trading/internal/domain"
	"mock_trading/internal/notify"
	"mock_trading/internal/service"
	"mock_trading/internal/session"
	"mock_trading/internal/store"
	"mock_trading/internal/store/storetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrices map[string]decimal.Decimal

func (s stubPrices) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := s[symbol]
	if !ok {
		return decimal.Zero, errors.New("unknown symbol")
	}
	return p, nil
}

func (s stubPrices) Refresh(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return s.Quote(ctx, symbol)
}

func (s stubPrices) History(_ context.Context, symbol string) ([]domain.PricePoint, error) {
	p, ok := s[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return []domain.PricePoint{{Date: "2024-03-01", Close: p.Sub(decimal.NewFromInt(1))}, {Date: "2024-03-04", Close: p}}, nil
}

type testServer struct {
	router *gin.Engine
	prices stubPrices
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	mr := miniredis.RunT(t)
	st := store.NewGormStore(storetest.Open(t))
	sessions := session.NewManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test-secret", time.Hour)
	prices := stubPrices{"ACME": decimal.RequireFromString("50.00")}
	r := NewRouter(Deps{
		Auth:       service.NewAuthService(st, sessions, notify.Nop{}, decimal.RequireFromString("1000"), log),
		Trading:    service.NewTradingService(st, prices, notify.Nop{}, log),
		Sessions:   sessions,
		Users:      st,
		Log:        log,
		SessionTTL: time.Hour,
	})
	return &testServer{router: r, prices: prices}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) form(t *testing.T, path, cookie string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: cookie})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in a user, returning the session token.
func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/register", "", gin.H{"username": "trader", "email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HealthMessage, w.Body.String())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@example.com")

	w := s.do(t, http.MethodPost, "/register", "", gin.H{"username": "x", "email": "ALICE@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.form(t, "/register", "", url.Values{"username": {"x"}, "email": {"alice@example.com"}, "password": {"password123"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/register?error="))
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/register", "", gin.H{"username": "x", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/register", "", gin.H{"username": "x", "email": "x@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSetsCookieAndRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "bob@example.com")

	w := s.form(t, "/login", "", url.Values{"email": {"bob@example.com"}, "password": {"password123"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/portfolio", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "bob@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.ErrInvalidCredentials.Error(), decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.ErrInvalidCredentials.Error(), decode(t, w)["error"])
}

func TestTradingFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "carol@example.com")

	w := s.do(t, http.MethodPost, "/buy", token, gin.H{"symbol": "acme", "quantity": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "500.00", decode(t, w)["balance"])

	w = s.do(t, http.MethodGet, "/portfolio", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pf := decode(t, w)
	assert.Equal(t, "500.00", pf["balance"])
	assert.Len(t, pf["holdings"], 1)

	s.prices["ACME"] = decimal.RequireFromString("60.00")
	w = s.do(t, http.MethodPost, "/sell", token, gin.H{"symbol": "ACME", "quantity": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, "1100.00", res["balance"])
	assert.Nil(t, res["holding"])

	w = s.do(t, http.MethodGet, "/trades?page=1&page_size=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.EqualValues(t, 2, page["total"])
	assert.EqualValues(t, 2, page["total_pages"])
	assert.Len(t, page["trades"], 1)
}

func TestTradeRejections(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "dave@example.com")

	tests := []struct {
		name   string
		path   string
		body   gin.H
		status int
	}{
		{"insufficient balance", "/buy", gin.H{"symbol": "ACME", "quantity": 21}, http.StatusUnprocessableEntity},
		{"insufficient shares", "/sell", gin.H{"symbol": "ACME", "quantity": 1}, http.StatusUnprocessableEntity},
		{"unknown symbol", "/buy", gin.H{"symbol": "NOPE", "quantity": 1}, http.StatusUnprocessableEntity},
		{"bad symbol", "/buy", gin.H{"symbol": "$$", "quantity": 1}, http.StatusBadRequest},
		{"zero quantity", "/buy", gin.H{"symbol": "ACME", "quantity": 0}, http.StatusBadRequest},
		{"missing symbol", "/sell", gin.H{"quantity": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, tt.path, token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := s.do(t, http.MethodGet, "/portfolio", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1000.00", decode(t, w)["balance"])
}

func TestBrowserTradeRedirectsWithFlash(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "erin@example.com")

	w := s.form(t, "/buy", token, url.Values{"symbol": {"ACME"}, "quantity": {"2"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/portfolio", loc.Path)
	assert.Equal(t, "Bought 2 shares of ACME at $50.00", loc.Query().Get("message"))

	w = s.form(t, "/sell", token, url.Values{"symbol": {"ACME"}, "quantity": {"5"}})
	loc, err = url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, domain.ErrInsufficientShares.Error(), loc.Query().Get("error"))
}

func TestPortfolioPage(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "frank@example.com")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/buy", token, gin.H{"symbol": "ACME", "quantity": 10}).Code)

	req := httptest.NewRequest(http.MethodGet, "/portfolio?message=hello", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "$500.00")
	assert.Contains(t, body, "ACME")
	assert.Contains(t, body, "hello")
}

func TestPriceEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "gina@example.com")

	w := s.do(t, http.MethodGet, "/price/acme", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "$50.00", decode(t, w)["formatted"])

	w = s.do(t, http.MethodGet, "/price/NOPE", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/price-history/ACME", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["points"], 2)

	w = s.do(t, http.MethodGet, "/price-history/NOPE", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/price-history/ACME", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Price history for ACME")
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "hank@example.com")

	w := s.do(t, http.MethodPost, "/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/portfolio", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/portfolio", "/trades", "/price/ACME", "/price-history/ACME"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := s.do(t, http.MethodPost, "/buy", "", gin.H{"symbol": "ACME", "quantity": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPortfolioRequiresLoadedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	r := gin.New()
	r.GET("/portfolio", PortfolioHandler(nil, log))

	req := httptest.NewRequest(http.MethodGet, "/portfolio", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
