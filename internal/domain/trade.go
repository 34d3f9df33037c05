package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Trade Model, an append-only record of an executed order
type Trade struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Side      Side            `gorm:"size:4;not null" json:"side"`
	Symbol    string          `gorm:"size:16;not null" json:"symbol"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"` // Execution price
	Total     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total"` // Cash moved
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// PricePoint is one daily close of a price series
type PricePoint struct {
	Date  string          `json:"date"` // YYYY-MM-DD
	Close decimal.Decimal `json:"close"`
}
