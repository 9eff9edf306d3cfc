package sim

import "sync"

// DefaultTapeCapacity is how many prints the tape retains before evicting.
const DefaultTapeCapacity = 400

// Tape is a bounded, newest-first record of executed and synthetic trades.
// Appending when full evicts the oldest entry. The tape has its own lock:
// ambient prints insert here without ever touching the ledger.
type Tape struct {
	mu       sync.Mutex
	capacity int
	trades   []Trade
	onInsert func(Trade)
}

func NewTape(capacity int) *Tape {
	if capacity <= 0 {
		capacity = DefaultTapeCapacity
	}
	return &Tape{capacity: capacity}
}

// OnInsert registers a callback invoked after every append, real or
// synthetic. Used to fan prints out to live viewers. Must be set before the
// tape is shared between goroutines.
func (t *Tape) OnInsert(fn func(Trade)) {
	t.mu.Lock()
	t.onInsert = fn
	t.mu.Unlock()
}

// Append records tr as the newest entry, evicting the oldest when full.
func (t *Tape) Append(tr Trade) {
	t.mu.Lock()
	if len(t.trades) < t.capacity {
		t.trades = append(t.trades, Trade{})
	}
	copy(t.trades[1:], t.trades)
	t.trades[0] = tr
	fn := t.onInsert
	t.mu.Unlock()

	if fn != nil {
		fn(tr)
	}
}

// Recent returns up to limit trades, newest first. An empty symbol matches
// everything; limit <= 0 means no limit beyond the tape's own capacity.
func (t *Tape) Recent(symbol string, limit int) []Trade {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.trades) {
		limit = len(t.trades)
	}

	out := make([]Trade, 0, limit)
	for _, tr := range t.trades {
		if symbol != "" && tr.Symbol != symbol {
			continue
		}
		out = append(out, tr)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Len returns the current number of entries.
func (t *Tape) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.trades)
}
