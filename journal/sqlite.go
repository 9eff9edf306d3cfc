package journal

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordFill(r FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills (trade_id, symbol, side, price, qty, time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.TradeID, r.Symbol, r.Side, r.Price, r.Qty, r.Time,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	// A flat book has an unconstrained margin ratio (+Inf); store it as NULL
	// rather than fighting the driver over non-finite floats.
	var ratio any
	if !math.IsInf(e.MarginRatio, 0) && !math.IsNaN(e.MarginRatio) {
		ratio = e.MarginRatio
	}

	_, err := j.db.Exec(`
		INSERT INTO equity (time, cash, equity, used_margin, margin_ratio)
		VALUES (?, ?, ?, ?, ?)`,
		e.Time, e.Cash, e.Equity, e.UsedMargin, ratio,
	)
	return err
}

// GetFill returns a single recorded fill by trade ID.
func (j *SQLiteJournal) GetFill(tradeID string) (FillRecord, error) {
	var r FillRecord
	err := j.db.QueryRow(`
		SELECT trade_id, symbol, side, price, qty, time
		FROM fills WHERE trade_id = ?`, tradeID,
	).Scan(&r.TradeID, &r.Symbol, &r.Side, &r.Price, &r.Qty, &r.Time)
	if err == sql.ErrNoRows {
		return FillRecord{}, fmt.Errorf("fill %q not found", tradeID)
	}
	if err != nil {
		return FillRecord{}, err
	}
	return r, nil
}

// RecentFills returns up to limit fills, most recent first.
func (j *SQLiteJournal) RecentFills(limit int) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, price, qty, time
		FROM fills ORDER BY time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var r FillRecord
		if err := rows.Scan(&r.TradeID, &r.Symbol, &r.Side, &r.Price, &r.Qty, &r.Time); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
