// Package journal records executed fills and equity marks for later review.
// It is write-only telemetry: nothing recorded here is replayed on restart,
// the ledger itself lives in memory only.
package journal

import "time"

// FillRecord is one executed order fill.
type FillRecord struct {
	TradeID string
	Symbol  string
	Side    string
	Price   float64
	Qty     float64
	Time    time.Time
}

// EquitySnapshot is the account state immediately after a fill.
type EquitySnapshot struct {
	Time        time.Time
	Cash        float64
	Equity      float64
	UsedMargin  float64
	MarginRatio float64
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
