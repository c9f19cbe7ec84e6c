package money

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidFormat    = errors.New("invalid money format")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrPrecision        = errors.New("amount exceeds currency precision")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrOverflow         = errors.New("amount overflow")
	ErrDivideByZero     = errors.New("division by zero")
)
