package service

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping

	"mock_trading/internal/domain" // Domain models and rules
	"mock_trading/internal/notify" // Trade confirmations
	"mock_trading/internal/store"  // Persistence

	"github.com/shopspring/decimal" // Decimal money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
)

const (
	DefaultPageSize = 20  // Default trades per page
	MaxPageSize     = 100 // Upper bound on trades per page
)

// PriceLookup fetches current and historical prices. Quote may answer from a
// cache, Refresh always asks the price source.
type PriceLookup interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
	Refresh(ctx context.Context, symbol string) (decimal.Decimal, error)
	History(ctx context.Context, symbol string) ([]domain.PricePoint, error)
}

// TradingService executes orders and reads portfolios.
type TradingService struct {
	store    store.Store
	prices   PriceLookup
	notifier notify.Notifier
	log      logrus.FieldLogger
	locks    userLocks
}

// NewTradingService wires a TradingService.
func NewTradingService(s store.Store, prices PriceLookup, n notify.Notifier, log logrus.FieldLogger) *TradingService {
	return &TradingService{store: s, prices: prices, notifier: n, log: log}
}

// TradeResult is the committed outcome of an order.
type TradeResult struct {
	Trade   domain.Trade
	Balance decimal.Decimal
	Holding *domain.Holding // nil when the position was closed
}

// Portfolio is a user's cash and open positions.
type Portfolio struct {
	User     domain.User
	Balance  decimal.Decimal
	Holdings []domain.Holding
}

// TradePage is one page of a user's trade ledger, newest first.
type TradePage struct {
	Trades   []domain.Trade
	Total    int64
	Page     int
	PageSize int
}

// Buy purchases quantity shares of symbol at the current price.
func (s *TradingService) Buy(ctx context.Context, p domain.Principal, symbol string, quantity int64) (*TradeResult, error) {
	return s.Execute(ctx, p, domain.Order{Side: domain.Buy, Symbol: symbol, Quantity: quantity})
}

// Sell disposes of quantity shares of symbol at the current price.
func (s *TradingService) Sell(ctx context.Context, p domain.Principal, symbol string, quantity int64) (*TradeResult, error) {
	return s.Execute(ctx, p, domain.Order{Side: domain.Sell, Symbol: symbol, Quantity: quantity})
}

// Execute prices the order and applies it atomically. On any error the
// user's balance and holdings are left as they were.
func (s *TradingService) Execute(ctx context.Context, p domain.Principal, order domain.Order) (*TradeResult, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	fields := logrus.Fields{
		"user_id":  p.UserID,       // Ordering user
		"side":     order.Side,     // buy or sell
		"symbol":   order.Symbol,   // Normalized ticker
		"quantity": order.Quantity, // Shares requested
	}

	price, err := s.prices.Refresh(ctx, order.Symbol) // Orders never trade on a cached price
	if err != nil {
		s.log.WithFields(fields).WithField("error", err.Error()).Warn("Price lookup failed")
		return nil, domain.ErrPriceUnavailable
	}

	done, err := s.apply(ctx, p.UserID, order, price)
	if err != nil {
		if isRejection(err) {
			s.log.WithFields(fields).WithField("reason", err.Error()).Info("Order rejected")
			return nil, err
		}
		s.log.WithFields(fields).WithField("error", err.Error()).Error("Order failed")
		return nil, fmt.Errorf("failed to execute order: %w", err)
	}

	plan, user, trade := done.plan, done.user, done.trade
	res := &TradeResult{Trade: trade, Balance: user.Balance}
	if plan.Action != domain.HoldingDelete {
		h := plan.Holding
		res.Holding = &h
	}
	// Log successful trade
	s.log.WithFields(fields).WithFields(logrus.Fields{
		"price":   plan.Price.String(),         // Execution price
		"total":   plan.Total.StringFixed(2),   // Cash moved
		"balance": user.Balance.StringFixed(2), // Balance after the trade
	}).Info("Order executed")

	// The user's lock is already released here
	if err := s.notifier.TradeConfirmation(user, trade, domain.FormatMoney(user.Balance)); err != nil {
		s.log.WithFields(fields).WithField("error", err.Error()).Warn("Trade confirmation not sent")
	}
	return res, nil
}

// applied is a committed order.
type applied struct {
	plan  domain.Plan  // Holding after the trade, with its stored id
	user  domain.User  // User after the trade
	trade domain.Trade // Stored ledger row
}

// apply runs one order as a unit of work while holding the user's lock.
func (s *TradingService) apply(ctx context.Context, userID uint, order domain.Order, price decimal.Decimal) (*applied, error) {
	unlock := s.locks.lock(userID) // Serialize this user's orders
	defer unlock()

	var done applied
	err := s.store.Transact(ctx, func(tx store.Repository) error {
		u, err := tx.LockUser(ctx, userID) // Row lock where the dialect has one
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUnauthenticated // Account removed since login
		}
		held, err := tx.FindHolding(ctx, u.ID, order.Symbol)
		if err != nil {
			return err
		}
		plan, err := domain.PlanOrder(*u, held, order, price)
		if err != nil {
			return err // Business rejection, nothing written yet
		}

		u.Balance = plan.Balance
		if err := tx.UpdateBalance(ctx, u); err != nil {
			return err // Return error to rollback
		}
		switch plan.Action {
		case domain.HoldingCreate:
			err = tx.CreateHolding(ctx, &plan.Holding)
		case domain.HoldingUpdate:
			err = tx.UpdateHolding(ctx, &plan.Holding)
		case domain.HoldingDelete:
			err = tx.DeleteHolding(ctx, &plan.Holding)
		default:
			err = fmt.Errorf("unexpected holding action %s", plan.Action)
		}
		if err != nil {
			return err // Return error to rollback
		}
		trade := plan.Trade()
		if err := tx.CreateTrade(ctx, &trade); err != nil {
			return err // Return error to rollback
		}
		done = applied{plan: plan, user: *u, trade: trade}
		return nil // Commit transaction
	})
	if err != nil {
		return nil, err
	}
	return &done, nil
}

// isRejection reports whether err is a business outcome rather than a fault.
func isRejection(err error) bool {
	for _, target := range []error{
		domain.ErrInsufficientBalance,
		domain.ErrInsufficientShares,
		domain.ErrInvalidOrder,
		domain.ErrInvalidSymbol,
		domain.ErrPriceUnavailable,
		domain.ErrUnauthenticated,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Portfolio returns the user's balance and holdings ordered by symbol.
func (s *TradingService) Portfolio(ctx context.Context, p domain.Principal) (*Portfolio, error) {
	user, err := s.store.FindUserByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.PortfolioFor(ctx, *user)
}

// PortfolioFor returns the portfolio of an already loaded user.
func (s *TradingService) PortfolioFor(ctx context.Context, user domain.User) (*Portfolio, error) {
	holdings, err := s.store.ListHoldings(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Portfolio{User: user, Balance: user.Balance, Holdings: holdings}, nil
}

// Quote returns the current price of symbol. It may be up to the quote cache
// TTL old.
func (s *TradingService) Quote(ctx context.Context, symbol string) (string, decimal.Decimal, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return "", decimal.Zero, err
	}
	price, err := s.prices.Quote(ctx, sym)
	if err != nil {
		s.log.WithFields(logrus.Fields{"symbol": sym, "error": err.Error()}).Warn("Price lookup failed")
		return sym, decimal.Zero, domain.ErrPriceUnavailable
	}
	return sym, price, nil
}

// PriceHistory returns daily closes for symbol, oldest first.
func (s *TradingService) PriceHistory(ctx context.Context, symbol string) (string, []domain.PricePoint, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return "", nil, err
	}
	points, err := s.prices.History(ctx, sym)
	if err != nil || len(points) == 0 {
		s.log.WithFields(logrus.Fields{"symbol": sym, "error": fmt.Sprint(err)}).Warn("Price history lookup failed")
		return sym, nil, domain.ErrHistoryUnavailable
	}
	return sym, points, nil
}

// Trades returns a page of the user's trade ledger. Out of range paging
// parameters are clamped.
func (s *TradingService) Trades(ctx context.Context, p domain.Principal, page, pageSize int) (*TradePage, error) {
	if page < 1 {
		page = 1 // Default page number
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	trades, total, err := s.store.ListTrades(ctx, p.UserID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &TradePage{Trades: trades, Total: total, Page: page, PageSize: pageSize}, nil
}
