// Package book fabricates plausible bid/ask ladders around the current mark.
// The ladder is synthetic display data, not a matchable book: every call is
// independent, stateless, and randomized in size only. Price levels are
// deterministic tick arithmetic off the mid.
package book

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rustyeddy/papertrade/market"
)

// Levels is how many price levels each side carries.
const Levels = 25

type Level struct {
	Price float64 `json:"p"`
	Qty   float64 `json:"q"`
}

// Book is one generated ladder. Mid is nil when no mark price is available.
// Ordering follows typical book rendering: asks carry the worst (farthest
// from mid) level first, bids carry the best (closest to mid) level last.
type Book struct {
	Bids []Level  `json:"bids"`
	Asks []Level  `json:"asks"`
	Mid  *float64 `json:"mid"`
}

// Generator produces books off the live price store. Randomness is
// injectable so tests can pin level sizes; production seeds from the clock.
type Generator struct {
	prices *market.PriceStore

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(prices *market.PriceStore, src rand.Source) *Generator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Generator{prices: prices, rng: rand.New(src)}
}

// Generate returns a fresh ladder for symbol. Without a mark price the book
// is empty with a nil mid.
func (g *Generator) Generate(symbol string) Book {
	mid, err := g.prices.Mark(symbol)
	if err != nil {
		return Book{Bids: []Level{}, Asks: []Level{}}
	}
	inst, ok := market.Instruments[symbol]
	if !ok {
		return Book{Bids: []Level{}, Asks: []Level{}}
	}

	asks := make([]Level, 0, Levels)
	for i := Levels; i >= 1; i-- {
		asks = append(asks, Level{
			Price: market.Round(mid+float64(i)*inst.Tick, 2),
			Qty:   market.Round(inst.BaseQty*g.uniform(0.7, 1.6), 4),
		})
	}

	bids := make([]Level, 0, Levels)
	for i := 1; i <= Levels; i++ {
		bids = append(bids, Level{
			Price: market.Round(mid-float64(i)*inst.Tick, 2),
			Qty:   market.Round(inst.BaseQty*g.uniform(0.7, 1.6), 4),
		})
	}
	// Reverse so the best bid sits last, mirroring how books render
	// top-of-book at the bottom of the bid column.
	for i, j := 0, len(bids)-1; i < j; i, j = i+1, j-1 {
		bids[i], bids[j] = bids[j], bids[i]
	}

	return Book{Bids: bids, Asks: asks, Mid: &mid}
}

func (g *Generator) uniform(a, b float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return a + g.rng.Float64()*(b-a)
}
