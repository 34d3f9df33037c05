package domain

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency of every balance and price in the platform.
const Currency = "USD"

// FormatMoney renders an amount for display, e.g. "$1,100.00".
func FormatMoney(d decimal.Decimal) string {
	cents := d.Shift(2).Round(0).IntPart()
	return money.New(cents, Currency).Display()
}
