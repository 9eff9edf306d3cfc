package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	fills  *csv.Writer
	equity *csv.Writer
	ff, ef *os.File
}

func NewCSV(fillsPath, equityPath string) (*CSVJournal, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	ew := csv.NewWriter(ef)

	closeBoth := func() {
		ff.Close()
		ef.Close()
	}

	if err := fw.Write([]string{"trade_id", "symbol", "side", "price", "qty", "time"}); err != nil {
		closeBoth()
		return nil, err
	}
	if err := ew.Write([]string{"time", "cash", "equity", "used_margin", "margin_ratio"}); err != nil {
		closeBoth()
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		closeBoth()
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		closeBoth()
		return nil, err
	}

	return &CSVJournal{fw, ew, ff, ef}, nil
}

func (j *CSVJournal) RecordFill(r FillRecord) error {
	err := j.fills.Write([]string{
		r.TradeID,
		r.Symbol,
		r.Side,
		f(r.Price),
		f(r.Qty),
		r.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Cash),
		f(e.Equity),
		f(e.UsedMargin),
		f(e.MarginRatio),
	})
	if err != nil {
		return err
	}

	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.ff.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
