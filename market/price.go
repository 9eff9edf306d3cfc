package market

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPriceUnavailable is returned when no mark price has ever been observed
// for a symbol. Callers should retry or display "no price"; the feed layer
// owns staleness, the store only distinguishes observed from never-observed.
var ErrPriceUnavailable = errors.New("price unavailable")

// Price is the latest observed mark price for a symbol.
type Price struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"ts"`
}

// PriceStore holds the most recent mark price per symbol. It is written by
// the feed poller and read by the engine, the book generator and the API.
type PriceStore struct {
	mu     sync.RWMutex
	latest map[string]Price
}

func NewPriceStore() *PriceStore {
	return &PriceStore{latest: make(map[string]Price)}
}

// Set records the latest observed price for p.Symbol.
func (s *PriceStore) Set(p Price) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[p.Symbol] = p
}

// Get returns the latest observed price for symbol, or ErrPriceUnavailable
// if none has ever been recorded.
func (s *PriceStore) Get(symbol string) (Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.latest[symbol]
	if !ok {
		return Price{}, fmt.Errorf("%s: %w", symbol, ErrPriceUnavailable)
	}
	return p, nil
}

// Mark returns just the price component for symbol.
func (s *PriceStore) Mark(symbol string) (float64, error) {
	p, err := s.Get(symbol)
	if err != nil {
		return 0, err
	}
	return p.Price, nil
}
