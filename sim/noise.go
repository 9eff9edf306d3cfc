package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/pkg/id"
)

// DefaultNoiseInterval is the cadence of ambient tape prints.
const DefaultNoiseInterval = 1200 * time.Millisecond

// Noise periodically fabricates small prints so the tape looks alive between
// real fills. Prints land within ±3 ticks of the mark with a random side and
// an instrument-specific size, and go through the same tape insertion path
// as real fills. They never touch the ledger: cash, positions and equity are
// unaffected.
type Noise struct {
	prices   *market.PriceStore
	tape     *Tape
	symbols  []string
	interval time.Duration
	rng      *rand.Rand
}

// NewNoise builds a generator for the given symbols. src may be nil for a
// time-seeded source; tests pass a fixed seed for reproducible prints.
func NewNoise(prices *market.PriceStore, tape *Tape, symbols []string, src rand.Source) *Noise {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Noise{
		prices:   prices,
		tape:     tape,
		symbols:  symbols,
		interval: DefaultNoiseInterval,
		rng:      rand.New(src),
	}
}

// Run emits prints on the configured cadence until ctx is cancelled.
func (n *Noise) Run(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.Tick()
		}
	}
}

// Tick emits one round of prints, one per symbol with an available mark.
// Symbols without a price are skipped silently.
func (n *Noise) Tick() {
	for _, sym := range n.symbols {
		mark, err := n.prices.Mark(sym)
		if err != nil {
			continue
		}
		inst, ok := market.Instruments[sym]
		if !ok {
			continue
		}

		px := market.Round(mark+(n.rng.Float64()-0.5)*inst.Tick*6, 2)
		side := SideBuy
		if n.rng.Float64() > 0.5 {
			side = SideSell
		}
		qty := market.Round(inst.NoiseQtyMin+n.rng.Float64()*inst.NoiseQtySpan, inst.QtyDecimals)

		n.tape.Append(Trade{
			ID:     id.New(),
			Symbol: sym,
			Side:   side,
			Price:  px,
			Qty:    qty,
			Time:   time.Now().UnixMilli(),
		})
	}
}
