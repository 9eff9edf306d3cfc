package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/pkg/id"
)

// Execute validates and applies a market order against the ledger. On
// success the fill is appended to the tape, journaled, and a fresh snapshot
// is pushed to the listener. On any rejection nothing is mutated and nothing
// is emitted.
//
// Preconditions, in order: supported symbol, qty > 0, a mark price exists,
// and required initial margin (qty * mark / leverage) does not exceed cash.
// The margin check is against raw cash, not free margin net of existing
// exposure. That mirrors the reference behavior and is intentional.
func (e *Engine) Execute(symbol string, side Side, qty float64) (Fill, error) {
	if !market.Supported(symbol) {
		return Fill{}, fmt.Errorf("%s: %w", symbol, ErrUnsupportedSymbol)
	}

	e.mu.Lock()

	if _, ok := e.positions[symbol]; !ok {
		e.mu.Unlock()
		return Fill{}, fmt.Errorf("%s: %w", symbol, ErrUnsupportedSymbol)
	}
	if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		e.mu.Unlock()
		return Fill{}, fmt.Errorf("%g: %w", qty, ErrInvalidQuantity)
	}

	px, err := e.prices.Mark(symbol)
	if err != nil {
		e.mu.Unlock()
		return Fill{}, err
	}

	required := qty * px / e.leverage
	if required > e.cash {
		e.mu.Unlock()
		return Fill{}, fmt.Errorf("need %.2f, have %.2f: %w", required, e.cash, ErrInsufficientMargin)
	}

	e.applyLocked(symbol, side, qty, px)

	now := time.Now()
	fill := Fill{
		TradeID: id.New(),
		Symbol:  symbol,
		Side:    side,
		Price:   px,
		Qty:     qty,
	}
	trade := Trade{
		ID:     fill.TradeID,
		Symbol: symbol,
		Side:   side,
		Price:  px,
		Qty:    qty,
		Time:   now.UnixMilli(),
	}

	// Tape append and the broadcast snapshot stay inside the critical
	// section so a concurrent order cannot interleave between them.
	e.tape.Append(trade)

	// Journaling is telemetry; a failed write must not unwind a fill.
	_ = e.journal.RecordFill(journal.FillRecord{
		TradeID: fill.TradeID,
		Symbol:  symbol,
		Side:    string(side),
		Price:   px,
		Qty:     qty,
		Time:    now,
	})
	if eq, eqErr := e.equityLocked(); eqErr == nil {
		used, _ := e.usedMarginLocked()
		ratio, _ := e.marginRatioLocked()
		_ = e.journal.RecordEquity(journal.EquitySnapshot{
			Time:        now,
			Cash:        e.cash,
			Equity:      eq,
			UsedMargin:  used,
			MarginRatio: ratio,
		})
	}

	snap := e.snapshotLocked()
	listener := e.listener
	e.mu.Unlock()

	if listener != nil {
		listener.OnSnapshot(snap)
	}

	return fill, nil
}

// applyLocked runs the position-update algorithm at fill price px.
func (e *Engine) applyLocked(symbol string, side Side, qty, px float64) {
	dir := 1.0
	if side == SideSell {
		dir = -1
	}

	pos := e.positions[symbol]
	newQty := pos.Quantity + dir*qty

	switch {
	case pos.Quantity == 0:
		// Flat -> open.
		pos.Entry = px
		pos.Quantity = newQty

	case dir == sign(pos.Quantity):
		// Same-direction add: entry becomes the notional-weighted average.
		total := math.Abs(pos.Quantity)*pos.Entry + qty*px
		pos.Quantity = newQty
		pos.Entry = total / math.Abs(newQty)

	default:
		// Reducing or flipping against the existing position. Realize PnL on
		// the closed portion; a flip re-opens the residual at the fill price.
		closing := math.Min(qty, math.Abs(pos.Quantity))
		realized := (px - pos.Entry) * sign(pos.Quantity) * closing
		e.cash += realized
		pos.Quantity = newQty
		if pos.Quantity == 0 {
			pos.Entry = 0
		} else if qty > closing {
			pos.Entry = px
		}
	}
}
