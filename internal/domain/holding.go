package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding Model. One row per (user, symbol); a persisted holding always has
// a positive quantity.
type Holding struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;uniqueIndex:idx_holdings_user_symbol" json:"user_id"`
	Symbol        string          `gorm:"size:16;not null;uniqueIndex:idx_holdings_user_symbol" json:"symbol"`
	Quantity      int64           `gorm:"not null" json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"purchase_price"` // Price at first acquisition
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
