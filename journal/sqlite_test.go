package journal

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteFillRoundTrip(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	want := FillRecord{
		TradeID: "01J0AAAA",
		Symbol:  "BTCUSDT",
		Side:    "buy",
		Price:   50000,
		Qty:     0.1,
		Time:    ts,
	}
	require.NoError(t, j.RecordFill(want))

	got, err := j.GetFill("01J0AAAA")
	require.NoError(t, err)
	assert.Equal(t, want.TradeID, got.TradeID)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Side, got.Side)
	assert.InDelta(t, want.Price, got.Price, 1e-9)
	assert.InDelta(t, want.Qty, got.Qty, 1e-9)
	assert.True(t, got.Time.Equal(ts))
}

func TestSQLiteGetFillNotFound(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	_, err := j.GetFill("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteRecentFillsOrdering(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, j.RecordFill(FillRecord{
			TradeID: string(rune('A' + i)),
			Symbol:  "BTCUSDT",
			Side:    "buy",
			Price:   50000,
			Qty:     0.1,
			Time:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := j.RecentFills(3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "E", got[0].TradeID, "most recent first")
	assert.Equal(t, "C", got[2].TradeID)
}

func TestSQLiteEquityInfiniteRatio(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	// +Inf ratio is stored as NULL rather than erroring.
	err := j.RecordEquity(EquitySnapshot{
		Time:        time.Now(),
		Cash:        10000,
		Equity:      10000,
		UsedMargin:  0,
		MarginRatio: math.Inf(1),
	})
	assert.NoError(t, err)

	err = j.RecordEquity(EquitySnapshot{
		Time:        time.Now(),
		Cash:        10000,
		Equity:      10100,
		UsedMargin:  510,
		MarginRatio: 19.8,
	})
	assert.NoError(t, err)
}
