package sim

import (
	"math"
	"sync"

	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
)

// Config holds the account parameters for a fresh engine.
type Config struct {
	Cash                  float64
	Leverage              float64
	InitialMarginRate     float64
	MaintenanceMarginRate float64
	Symbols               []string
}

// snapshotListener is notified with a fresh snapshot after each successful
// fill, so viewers see ledger changes without waiting for the periodic tick.
// This is an internal interface; the broadcast hub satisfies it.
type snapshotListener interface {
	OnSnapshot(Snapshot)
}

// Engine owns the ledger: cash, per-symbol positions and the margin
// parameters. Every mutation and every consistent read goes through its
// mutex; the precondition checks, the position update, the tape append and
// the broadcast snapshot of one order form a single critical section, so two
// concurrent orders can never both pass the margin check against cash that
// neither has debited yet.
type Engine struct {
	mu        sync.Mutex
	cash      float64
	positions map[string]*Position
	leverage  float64
	im        float64
	mm        float64
	symbols   []string

	prices   *market.PriceStore
	tape     *Tape
	journal  journal.Journal
	listener snapshotListener
}

func NewEngine(cfg Config, prices *market.PriceStore, tape *Tape, j journal.Journal) *Engine {
	if j == nil {
		j = journal.Nop()
	}

	positions := make(map[string]*Position, len(cfg.Symbols))
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		positions[s] = &Position{}
		symbols = append(symbols, s)
	}

	return &Engine{
		cash:      cfg.Cash,
		positions: positions,
		leverage:  cfg.Leverage,
		im:        cfg.InitialMarginRate,
		mm:        cfg.MaintenanceMarginRate,
		symbols:   symbols,
		prices:    prices,
		tape:      tape,
		journal:   j,
	}
}

// SetSnapshotListener wires the post-fill broadcast. Call before serving
// orders.
func (e *Engine) SetSnapshotListener(l snapshotListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// Symbols returns the configured symbol set in stable order.
func (e *Engine) Symbols() []string {
	out := make([]string, len(e.symbols))
	copy(out, e.symbols)
	return out
}

// Tape returns the trade tape shared with the ambient print generator.
func (e *Engine) Tape() *Tape { return e.tape }

// Cash returns the current collateral balance.
func (e *Engine) Cash() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cash
}

// Position returns a copy of the current position for symbol.
func (e *Engine) Position(symbol string) Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.positions[symbol]; ok {
		return *p
	}
	return Position{}
}

// MarkPrice returns the current mark price for symbol.
func (e *Engine) MarkPrice(symbol string) (float64, error) {
	return e.prices.Mark(symbol)
}

// UnrealizedPnl is (mark - entry) * quantity. A flat position reports zero
// without consulting the price store, even if Entry holds leftovers from a
// prior flat-out.
func (e *Engine) UnrealizedPnl(symbol string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upnlLocked(symbol)
}

// Notional is |quantity| * mark, zero for a flat position.
func (e *Engine) Notional(symbol string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notionalLocked(symbol)
}

// UsedMargin is the sum of all position notionals divided by leverage.
func (e *Engine) UsedMargin() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usedMarginLocked()
}

// Equity is cash plus unrealized PnL across all positions.
func (e *Engine) Equity() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equityLocked()
}

// MarginRatio is equity over used margin, +Inf when nothing is at risk.
func (e *Engine) MarginRatio() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.marginRatioLocked()
}

// LiquidationPrice estimates the mark at which whole-book equity would hit
// the maintenance threshold, holding all other symbols' marks fixed. ok is
// false for a flat position. This is a linear approximation, not
// exchange-grade: moving the solved-for price also moves that symbol's own
// notional, which the formula ignores.
func (e *Engine) LiquidationPrice(symbol string) (price float64, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liquidationLocked(symbol)
}

// Snapshot projects the ledger plus the latest marks into a point-in-time
// view. Computed fresh on every call, never cached.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) upnlLocked(symbol string) (float64, error) {
	pos, ok := e.positions[symbol]
	if !ok || pos.Quantity == 0 {
		return 0, nil
	}
	px, err := e.prices.Mark(symbol)
	if err != nil {
		return 0, err
	}
	return (px - pos.Entry) * pos.Quantity, nil
}

func (e *Engine) notionalLocked(symbol string) (float64, error) {
	pos, ok := e.positions[symbol]
	if !ok || pos.Quantity == 0 {
		return 0, nil
	}
	px, err := e.prices.Mark(symbol)
	if err != nil {
		return 0, err
	}
	return math.Abs(pos.Quantity) * px, nil
}

func (e *Engine) usedMarginLocked() (float64, error) {
	var used float64
	for _, s := range e.symbols {
		n, err := e.notionalLocked(s)
		if err != nil {
			return 0, err
		}
		used += n / e.leverage
	}
	return used, nil
}

func (e *Engine) equityLocked() (float64, error) {
	equity := e.cash
	for _, s := range e.symbols {
		u, err := e.upnlLocked(s)
		if err != nil {
			return 0, err
		}
		equity += u
	}
	return equity, nil
}

func (e *Engine) marginRatioLocked() (float64, error) {
	used, err := e.usedMarginLocked()
	if err != nil {
		return 0, err
	}
	if used == 0 {
		return math.Inf(1), nil
	}
	eq, err := e.equityLocked()
	if err != nil {
		return 0, err
	}
	return eq / used, nil
}

func (e *Engine) liquidationLocked(symbol string) (float64, bool, error) {
	pos, ok := e.positions[symbol]
	if !ok || pos.Quantity == 0 {
		return 0, false, nil
	}

	var otherUpnl, totalNotional float64
	for _, s := range e.symbols {
		n, err := e.notionalLocked(s)
		if err != nil {
			return 0, false, err
		}
		totalNotional += n

		if s == symbol {
			continue
		}
		u, err := e.upnlLocked(s)
		if err != nil {
			return 0, false, err
		}
		otherUpnl += u
	}

	side := sign(pos.Quantity)
	q := math.Abs(pos.Quantity)
	targetEquity := e.mm * totalNotional
	needSelf := targetEquity - (e.cash + otherUpnl)

	return pos.Entry + needSelf/(side*q), true, nil
}
