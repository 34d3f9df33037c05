// Package store is the persistence layer of the trading platform.
//
// Lookups return a nil result and a nil error when the row does not exist.
// Every mutation of a user's balance and holdings happens through
// Store.Transact so that both rows change together or not at all.
package store

import (
	"context" // Request scoped cancellation

	"mock_trading/internal/domain" // Domain models
)

// Repository is the data access surface used by the services.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id uint) (*domain.User, error)
	// LockUser reads the user row for update. Dialects without row locks
	// fall back to a plain read.
	LockUser(ctx context.Context, id uint) (*domain.User, error)
	UpdateBalance(ctx context.Context, user *domain.User) error

	FindHolding(ctx context.Context, userID uint, symbol string) (*domain.Holding, error)
	ListHoldings(ctx context.Context, userID uint) ([]domain.Holding, error)
	CreateHolding(ctx context.Context, holding *domain.Holding) error
	UpdateHolding(ctx context.Context, holding *domain.Holding) error
	DeleteHolding(ctx context.Context, holding *domain.Holding) error
	HeldSymbols(ctx context.Context) ([]string, error)

	CreateTrade(ctx context.Context, trade *domain.Trade) error
	ListTrades(ctx context.Context, userID uint, page, pageSize int) ([]domain.Trade, int64, error)
}

// Store is a Repository that can run a unit of work.
type Store interface {
	Repository
	// Transact runs fn against a transactional repository. The transaction
	// commits when fn returns nil and rolls back otherwise.
	Transact(ctx context.Context, fn func(tx Repository) error) error
}
