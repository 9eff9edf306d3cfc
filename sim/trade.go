package sim

import "fmt"

// Side is the direction of a fill.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide converts a request-layer string into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	}
	return "", fmt.Errorf("side must be buy or sell, got %q", s)
}

// Trade is a single tape entry, real or synthetic. Immutable once created.
// Time is unix milliseconds.
type Trade struct {
	ID     string  `json:"id"`
	Symbol string  `json:"symbol"`
	Side   Side    `json:"side"`
	Price  float64 `json:"px"`
	Qty    float64 `json:"qty"`
	Time   int64   `json:"ts"`
}

// Fill is what the caller gets back from a successful execution.
type Fill struct {
	TradeID string  `json:"tradeId"`
	Symbol  string  `json:"symbol"`
	Side    Side    `json:"side"`
	Price   float64 `json:"px"`
	Qty     float64 `json:"qty"`
}
