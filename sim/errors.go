package sim

import (
	"errors"

	"github.com/rustyeddy/papertrade/market"
)

// Order rejection reasons. All are request-local and recoverable; a rejected
// order leaves cash, positions and the tape untouched.
var (
	ErrUnsupportedSymbol  = errors.New("unsupported symbol")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInsufficientMargin = errors.New("insufficient margin")

	// ErrPriceUnavailable is the store's sentinel, re-exported so callers can
	// match rejections without importing market.
	ErrPriceUnavailable = market.ErrPriceUnavailable
)
