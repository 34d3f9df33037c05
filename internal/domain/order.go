package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// NormalizeSymbol upper-cases and trims a ticker and checks its shape.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if !symbolPattern.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}

// Order is a request to trade Quantity shares of Symbol.
type Order struct {
	Side     Side
	Symbol   string
	Quantity int64
}

// Validate normalizes the symbol in place and checks the quantity.
func (o *Order) Validate() error {
	if o.Side != Buy && o.Side != Sell {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, o.Side)
	}
	sym, err := NormalizeSymbol(o.Symbol)
	if err != nil {
		return err
	}
	o.Symbol = sym
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	return nil
}

// HoldingAction tells the store what to do with the holding row.
type HoldingAction int

const (
	HoldingCreate HoldingAction = iota + 1
	HoldingUpdate
	HoldingDelete
)

func (a HoldingAction) String() string {
	switch a {
	case HoldingCreate:
		return "create"
	case HoldingUpdate:
		return "update"
	case HoldingDelete:
		return "delete"
	}
	return "none"
}

// Plan is the outcome of applying an order to a user's current state.
// Nothing is persisted by computing a plan.
type Plan struct {
	Order   Order
	Price   decimal.Decimal
	Total   decimal.Decimal // cash moved, rounded to cents
	Balance decimal.Decimal // balance after the trade
	Action  HoldingAction
	Holding Holding // holding after the trade; Quantity is 0 when Action is HoldingDelete
}

// Trade returns the ledger record for the plan.
func (p Plan) Trade() Trade {
	return Trade{
		UserID:   p.Holding.UserID,
		Side:     p.Order.Side,
		Symbol:   p.Order.Symbol,
		Quantity: p.Order.Quantity,
		Price:    p.Price,
		Total:    p.Total,
	}
}

// PricePlaces is the precision of stored prices, matching decimal(20,4).
const PricePlaces = 4

// PlanOrder computes the new balance and holding state for order.
// held is the user's current holding of the order's symbol, or nil.
// The price is rounded to PricePlaces before any arithmetic.
func PlanOrder(user User, held *Holding, order Order, price decimal.Decimal) (Plan, error) {
	if err := order.Validate(); err != nil {
		return Plan{}, err
	}
	price = price.Round(PricePlaces) // Totals use the price as it is stored
	if !price.IsPositive() {
		return Plan{}, ErrPriceUnavailable
	}
	if held != nil && (held.UserID != user.ID || held.Symbol != order.Symbol) {
		return Plan{}, fmt.Errorf("%w: holding %d does not match order", ErrInvalidOrder, held.ID)
	}
	if order.Side == Buy {
		return planBuy(user, held, order, price)
	}
	return planSell(user, held, order, price)
}

func planBuy(user User, held *Holding, order Order, price decimal.Decimal) (Plan, error) {
	total := price.Mul(decimal.NewFromInt(order.Quantity)).Round(2)
	if user.Balance.LessThan(total) {
		return Plan{}, ErrInsufficientBalance
	}
	plan := Plan{
		Order:   order,
		Price:   price,
		Total:   total,
		Balance: user.Balance.Sub(total),
	}
	if held != nil {
		plan.Action = HoldingUpdate
		plan.Holding = *held
		plan.Holding.Quantity += order.Quantity // purchase price stays the first acquisition price
		return plan, nil
	}
	plan.Action = HoldingCreate
	plan.Holding = Holding{
		UserID:        user.ID,
		Symbol:        order.Symbol,
		Quantity:      order.Quantity,
		PurchasePrice: price,
	}
	return plan, nil
}

func planSell(user User, held *Holding, order Order, price decimal.Decimal) (Plan, error) {
	if held == nil || held.Quantity < order.Quantity {
		return Plan{}, ErrInsufficientShares
	}
	total := price.Mul(decimal.NewFromInt(order.Quantity)).Round(2)
	plan := Plan{
		Order:   order,
		Price:   price,
		Total:   total,
		Balance: user.Balance.Add(total),
		Action:  HoldingUpdate,
		Holding: *held,
	}
	plan.Holding.Quantity -= order.Quantity
	if plan.Holding.Quantity == 0 {
		plan.Action = HoldingDelete
	}
	return plan, nil
}
