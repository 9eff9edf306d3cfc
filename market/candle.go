package market

import "sync"

// Candle is a single OHLCV bar. Time is unix milliseconds, which is both what
// the upstream kline feed delivers and what the dashboard chart consumes.
type Candle struct {
	Time   int64   `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

// CandleStore holds the most recent candle history per symbol. Each poll
// replaces a symbol's history wholesale; there is no incremental merging.
type CandleStore struct {
	mu      sync.RWMutex
	candles map[string][]Candle
}

func NewCandleStore() *CandleStore {
	return &CandleStore{candles: make(map[string][]Candle)}
}

// SetAll replaces the stored history for symbol.
func (s *CandleStore) SetAll(symbol string, candles []Candle) {
	cp := make([]Candle, len(candles))
	copy(cp, candles)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles[symbol] = cp
}

// Get returns a copy of the stored history for symbol. An unknown symbol
// yields an empty (non-nil) slice so it serializes as [] rather than null.
func (s *CandleStore) Get(symbol string) []Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.candles[symbol]
	out := make([]Candle, len(stored))
	copy(out, stored)
	return out
}
