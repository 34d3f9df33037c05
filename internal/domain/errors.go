package domain

import "errors"

// Business rule rejections. Handlers map these to user facing messages.
var (
	ErrEmailTaken          = errors.New("email is already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrInvalidOrder        = errors.New("invalid order")
	ErrInvalidSymbol       = errors.New("invalid stock symbol")
	ErrPriceUnavailable    = errors.New("invalid stock symbol or unable to fetch price")
	ErrHistoryUnavailable  = errors.New("unable to retrieve price history")
	ErrInsufficientBalance = errors.New("insufficient balance to complete the purchase")
	ErrInsufficientShares  = errors.New("insufficient shares to complete the sale")
)
