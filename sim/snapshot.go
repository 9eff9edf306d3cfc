package sim

import (
	"encoding/json"
	"math"
	"time"
)

// Ratio is a float64 that marshals non-finite values as null. A flat book
// has a margin ratio of +Inf, which encoding/json refuses to emit.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	v := float64(r)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// PositionView is the per-symbol slice of a snapshot.
type PositionView struct {
	Qty      float64  `json:"qty"`
	Entry    float64  `json:"entry"`
	Upnl     float64  `json:"upnl"`
	Notional float64  `json:"notional"`
	Liq      *float64 `json:"liq"`
}

// Snapshot is a point-in-time projection of ledger plus marks. Time is unix
// milliseconds.
type Snapshot struct {
	Time        int64                   `json:"time"`
	Prices      map[string]float64      `json:"prices"`
	Cash        float64                 `json:"cash"`
	Equity      float64                 `json:"equity"`
	UsedMargin  float64                 `json:"usedMargin"`
	MarginRatio Ratio                   `json:"marginRatio"`
	Positions   map[string]PositionView `json:"positions"`
}

// snapshotLocked builds the projection under the engine lock. Symbols whose
// mark has never been observed are omitted from Prices and contribute zero
// risk, instead of failing the whole snapshot.
func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Time:      time.Now().UnixMilli(),
		Prices:    make(map[string]float64, len(e.symbols)),
		Cash:      e.cash,
		Positions: make(map[string]PositionView, len(e.symbols)),
	}

	for _, s := range e.symbols {
		if px, err := e.prices.Mark(s); err == nil {
			snap.Prices[s] = px
		}

		pos := e.positions[s]
		view := PositionView{Qty: pos.Quantity, Entry: pos.Entry}
		if u, err := e.upnlLocked(s); err == nil {
			view.Upnl = u
		}
		if n, err := e.notionalLocked(s); err == nil {
			view.Notional = n
		}
		if liq, ok, err := e.liquidationLocked(s); err == nil && ok {
			v := liq
			view.Liq = &v
		}
		snap.Positions[s] = view
	}

	if eq, err := e.equityLocked(); err == nil {
		snap.Equity = eq
	} else {
		snap.Equity = e.cash
	}
	if used, err := e.usedMarginLocked(); err == nil {
		snap.UsedMargin = used
	}
	if ratio, err := e.marginRatioLocked(); err == nil {
		snap.MarginRatio = Ratio(ratio)
	} else {
		snap.MarginRatio = Ratio(math.Inf(1))
	}

	return snap
}
