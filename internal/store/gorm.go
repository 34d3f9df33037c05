package store

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping

	"mock_trading/internal/domain" // Domain models

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Row locking clauses
)

// GormStore implements Store on top of GORM.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps an open GORM connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transact implements Store.
func (s *GormStore) Transact(ctx context.Context, fn func(tx Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken // Unique email index
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	return first(s.db.WithContext(ctx).Where("email = ?", email), &user)
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	return first(s.db.WithContext(ctx).Where("id = ?", id), &user)
}

func (s *GormStore) LockUser(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	q := s.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" { // SQLite locks the whole database per write transaction
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return first(q.Where("id = ?", id), &user)
}

func (s *GormStore) UpdateBalance(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Model(user).Update("balance", user.Balance).Error; err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func (s *GormStore) FindHolding(ctx context.Context, userID uint, symbol string) (*domain.Holding, error) {
	var h domain.Holding
	return first(s.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol), &h)
}

func (s *GormStore) ListHoldings(ctx context.Context, userID uint) ([]domain.Holding, error) {
	var holdings []domain.Holding
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("symbol").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

func (s *GormStore) CreateHolding(ctx context.Context, h *domain.Holding) error {
	if h.Quantity <= 0 { // Empty positions are deleted, never stored
		return fmt.Errorf("refusing to create holding with quantity %d", h.Quantity)
	}
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateHolding(ctx context.Context, h *domain.Holding) error {
	if h.Quantity <= 0 {
		return fmt.Errorf("refusing to store holding %d with quantity %d", h.ID, h.Quantity)
	}
	if err := s.db.WithContext(ctx).Model(h).Update("quantity", h.Quantity).Error; err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteHolding(ctx context.Context, h *domain.Holding) error {
	res := s.db.WithContext(ctx).Delete(&domain.Holding{}, h.ID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete holding: %w", res.Error)
	}
	if res.RowsAffected != 1 { // Holding vanished under us
		return fmt.Errorf("failed to delete holding: %d not found", h.ID)
	}
	return nil
}

func (s *GormStore) HeldSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := s.db.WithContext(ctx).Model(&domain.Holding{}).Distinct().Order("symbol").Pluck("symbol", &symbols).Error; err != nil {
		return nil, fmt.Errorf("failed to list held symbols: %w", err)
	}
	return symbols, nil
}

func (s *GormStore) CreateTrade(ctx context.Context, t *domain.Trade) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

func (s *GormStore) ListTrades(ctx context.Context, userID uint, page, pageSize int) ([]domain.Trade, int64, error) {
	query := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&domain.Trade{}).Where("user_id = ?", userID)
	}
	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trades: %w", err)
	}
	var trades []domain.Trade
	offset := (page - 1) * pageSize // Calculate offset for pagination
	if err := query().Order("id desc").Offset(offset).Limit(pageSize).Find(&trades).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch trades: %w", err)
	}
	return trades, total, nil
}

// first loads a single row into dest, mapping "not found" to a nil result.
func first[T any](q *gorm.DB, dest *T) (*T, error) {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return dest, nil
}
