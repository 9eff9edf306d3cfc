package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
)

type testJournal struct {
	fills  []journal.FillRecord
	equity []journal.EquitySnapshot
	closed bool
}

func (j *testJournal) RecordFill(r journal.FillRecord) error {
	j.fills = append(j.fills, r)
	return nil
}

func (j *testJournal) RecordEquity(e journal.EquitySnapshot) error {
	j.equity = append(j.equity, e)
	return nil
}

func (j *testJournal) Close() error {
	j.closed = true
	return nil
}

type snapCatcher struct {
	snaps []Snapshot
}

func (c *snapCatcher) OnSnapshot(s Snapshot) {
	c.snaps = append(c.snaps, s)
}

func TestExecuteFlatOpen(t *testing.T) {
	t.Parallel()

	e, prices := newTestEngine(t, 10000)
	setMark(t, prices, "BTCUSDT", 50000)

	fill := mustExecute(t, e, "BTCUSDT", SideBuy, 0.1)
	assert.InDelta(t, 50000, fill.Price, 1e-9)
	assert.NotEmpty(t, fill.TradeID)

	pos := e.Position("BTCUSDT")
	assert.InDelta(t, 0.1, pos.Quantity, 1e-12)
	assert.InDelta(t, 50000, pos.Entry, 1e-9)
	assert.InDelta(t, 10000, e.Cash(), 1e-9, "opening must not move cash")
}

func TestExecuteSameDirectionAddAveragesEntry(t *testing.T) {
	t.Parallel()

	e, prices := newTestEngine(t, 10000)
	setMark(t, prices, "BTCUSDT", 50000)
	mustExecute(t, e, "BTCUSDT", SideBuy, 0.1)

	setMark(t, prices, "BTCUSDT", 52000)
	mustExecute(t, e, "BTCUSDT", SideBuy, 0.1)

	pos := e.Position("BTCUSDT")
	assert.InDelta(t, 0.2, pos.Quantity, 1e-12)
	assert.InDelta(t, 51000, pos.Entry, 1e-9)
}

func TestWeightedEntryAcrossFillSequence(t *testing.T) {
	t.Parallel()

	fills := []struct {
		qty float64
		px  float64
	}{
		{0.1, 50000},
		{0.2, 51000},
		{0.3, 49500},
	}

	e, prices := newTestEngine(t, 10000)

	var sumNotional, sumQty float64
	for _, f := range fills {
		setMark(t, prices, "BTCUSDT", f.px)
		mustExecute(t, e, "BTCUSDT", SideBuy, f.qty)
		sumNotional += f.qty * f.px
		sumQty += f.qty
	}

	pos := e.Position("BTCUSDT")
	assert.InDelta(t, sumQty, pos.Quantity, 1e-12)
	assert.InDelta(t, sumNotional/sumQty, pos.Entry, 1e-9)
}

func TestExecutePartialCloseRealizesPnl(t *testing.T) {
	t.Parallel()

	e, prices := newTestEngine(t, 10000)
	setMark(t, prices, "BTCUSDT", 50000)
	mustExecute(t, e, "BTCUSDT", SideBuy, 0.2)

	setMark(t, prices, "BTCUSDT", 51000)
	mustExecute(t, e, "BTCUSDT", SideSell, 0.1)

	pos := e.Position("BTCUSDT")
	assert.InDelta(t, 0.1, pos.Quantity, 1e-12)
	assert.InDelta(t, 50000, pos.Entry, 1e-9, "entry must not change on a partial close")
	assert.InDelta(t, 10100, e.Cash(), 1e-9)
}

func TestExecutePartialCloseShortRealizesPnl(t *testing.T) {
	t.Parallel()

	e, prices := newTestEngine(t, 10000)
	setMark(t, prices, "BTCUSDT", 50000)
	mustExecute(t, e, "BTCUSDT", SideSell, 0.2)

	setMark(t, prices, "BTCUSDT", 49000)
	mustExecute(t, e, "BTCUSDT", SideBuy, 0.1)

	pos := e.Position("BTCUSDT")
	assert.InDelta(t, -0.1, pos.Quantity, 1e-12)
	assert.InDelta(t, 50000, pos.Entry, 1e-9, "entry must not change on a partial close")
	assert.InDelta(t, 10100, e.Cash(), 1e-9)
}

func TestExecuteFlattenResetsEntry(t *testing.T) {
	t.Parallel()

	e, prices := newTestEngine(t, 10000)
	setMark(t, prices, "BTCUSDT", 50000)
	mustExecute(t, e, "BTCUSDT", SideBuy, 0.1)

	setMark(t, prices, "BTCUSDT", 51000)
	mustExecute(t, e, "BTCUSDT", SideSell, 0.1)

	pos := e.Position("BTCUSDT")
	assert.Zero(t, pos.Quantity)
	assert.Zero(t, pos.Entry)
	assert.InDelta(t, 10100, e.Cash(), 1e-9)

	// The next fill behaves as a fresh flat->open at the new mark.
	setMark(t, prices, "BTCUSDT", 52000)
	mustExecute(t, e, "BTCUSDT", SideBuy, 0.05)
	pos = e.Position("BTCUSDT")
	assert.InDelta(t, 52000, pos.Entry, 1e-9)
}

func TestExecuteFlipOpensResidualAtMark(t *testing.T) {
	t.Parallel()

	e, prices := newTestEngine(t, 10000)
	setMark(t, prices, "BTCUSDT", 50000)
	mustExecute(t, e, "BTCUSDT", SideBuy, 0.1)

	setMark(t, prices, "BTCUSDT", 51000)
	mustExecute(t, e, "BTCUSDT", SideSell, 0.3)

	pos := e.Position("BTCUSDT")
	assert.InDelta(t, -0.2, pos.Quantity, 1e-12)
	assert.InDelta(t, 51000, pos.Entry, 1e-9, "flip residual opens at the fill price")
	assert.InDelta(t, 10100, e.Cash(), 1e-9, "only the closed portion realizes")
}

func TestExecuteRejectsInvalidQuantity(t *testing.T) {
	t.Parallel()

	for _, qty := range []float64{0, -1} {
		e, prices := newTestEngine(t, 10000)
		setMark(t, prices, "BTCUSDT", 50000)

		_, err := e.Execute("BTCUSDT", SideBuy, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assertUntouched(t, e, 10000)
	}
}

func TestExecuteRejectsWithoutPrice(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, 10000)

	_, err := e.Execute("BTCUSDT", SideBuy, 0.1)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assertUntouched(t, e, 10000)
}

func TestExecuteRejectsInsufficientMargin(t *testing.T) {
	t.Parallel()

	e, prices := newTestEngine(t, 10000)
	setMark(t, prices, "BTCUSDT", 50000)

	// 5 * 50000 / 10 = 25000 required > 10000 cash.
	_, err := e.Execute("BTCUSDT", SideSell, 5)
	assert.ErrorIs(t, err, ErrInsufficientMargin)
	assertUntouched(t, e, 10000)
}

func TestExecuteRejectsUnsupportedSymbol(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, 10000)

	_, err := e.Execute("DOGEUSDT", SideBuy, 1)
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)
	assertUntouched(t, e, 10000)
}

func TestExecuteMarginCheckAgainstRawCash(t *testing.T) {
	t.Parallel()

	// The check is raw cash, not free margin: existing exposure does not
	// shrink what a new order may use. Two orders each needing 5000 both
	// pass against 10000 cash.
	e, prices := newTestEngine(t, 10000)
	setMark(t, prices, "BTCUSDT", 50000)

	mustExecute(t, e, "BTCUSDT", SideBuy, 1) // requires 5000
	mustExecute(t, e, "BTCUSDT", SideBuy, 1) // still passes: cash untouched

	pos := e.Position("BTCUSDT")
	assert.InDelta(t, 2, pos.Quantity, 1e-12)
}

func TestExecuteAppendsTapeJournalsAndNotifies(t *testing.T) {
	t.Parallel()

	prices := market.NewPriceStore()
	tape := NewTape(0)
	jnl := &testJournal{}
	e := NewEngine(Config{
		Cash: 10000, Leverage: 10,
		InitialMarginRate: 0.1, MaintenanceMarginRate: 0.05,
		Symbols: []string{"BTCUSDT"},
	}, prices, tape, jnl)

	catcher := &snapCatcher{}
	e.SetSnapshotListener(catcher)

	setMark(t, prices, "BTCUSDT", 50000)
	fill := mustExecute(t, e, "BTCUSDT", SideBuy, 0.1)

	recent := tape.Recent("", 0)
	require.Len(t, recent, 1)
	assert.Equal(t, fill.TradeID, recent[0].ID)
	assert.Equal(t, SideBuy, recent[0].Side)
	assert.InDelta(t, 50000, recent[0].Price, 1e-9)

	require.Len(t, jnl.fills, 1)
	assert.Equal(t, fill.TradeID, jnl.fills[0].TradeID)
	require.Len(t, jnl.equity, 1)
	assert.InDelta(t, 10000, jnl.equity[0].Cash, 1e-9)

	require.Len(t, catcher.snaps, 1)
	assert.InDelta(t, 0.1, catcher.snaps[0].Positions["BTCUSDT"].Qty, 1e-12)
}

func TestExecuteRejectionEmitsNothing(t *testing.T) {
	t.Parallel()

	prices := market.NewPriceStore()
	tape := NewTape(0)
	jnl := &testJournal{}
	e := NewEngine(Config{
		Cash: 10000, Leverage: 10,
		InitialMarginRate: 0.1, MaintenanceMarginRate: 0.05,
		Symbols: []string{"BTCUSDT"},
	}, prices, tape, jnl)

	catcher := &snapCatcher{}
	e.SetSnapshotListener(catcher)

	setMark(t, prices, "BTCUSDT", 50000)
	_, err := e.Execute("BTCUSDT", SideSell, 5)
	require.Error(t, err)

	assert.Zero(t, tape.Len())
	assert.Empty(t, jnl.fills)
	assert.Empty(t, jnl.equity)
	assert.Empty(t, catcher.snaps)
}

// assertUntouched verifies a rejected order left no trace on the ledger.
func assertUntouched(t *testing.T, e *Engine, cash float64) {
	t.Helper()
	assert.InDelta(t, cash, e.Cash(), 1e-9)
	for _, s := range e.Symbols() {
		pos := e.Position(s)
		assert.Zero(t, pos.Quantity)
		assert.Zero(t, pos.Entry)
	}
	assert.Zero(t, e.Tape().Len())
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	side, err := ParseSide("buy")
	require.NoError(t, err)
	assert.Equal(t, SideBuy, side)

	side, err = ParseSide("sell")
	require.NoError(t, err)
	assert.Equal(t, SideSell, side)

	_, err = ParseSide("short")
	assert.Error(t, err)
}
