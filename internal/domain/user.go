package domain

import (
	"time"

	"github.com/shopspring/decimal" // Exact monetary arithmetic
)

// User Model
type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Username     string          `gorm:"size:64;not null" json:"username"`
	Email        string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string          `gorm:"not null" json:"-"`                          // bcrypt hash, never serialized
	Balance      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance"` // Cash available for trading
	Holdings     []Holding       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Principal identifies the authenticated caller of an operation.
// It is produced by the session middleware and passed explicitly to services.
type Principal struct {
	UserID    uint
	SessionID string
}
