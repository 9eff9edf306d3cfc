// Package feed pulls live spot prices and candle history from Binance's
// public REST API and deposits them into the market stores. Fetch failures
// degrade the affected symbols to "no price observed"; they never crash the
// simulator.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/papertrade/market"
)

// DefaultBaseURL is the public Binance spot API.
const DefaultBaseURL = "https://api.binance.com"

const userAgent = "papertrade-sim/1.0"

// Client is a thin Binance REST client for the two endpoints the simulator
// needs: ticker prices and 1m klines.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type tickerRow struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// TickerPrices fetches the full ticker list and returns prices for the
// requested symbols. Symbols missing from the response are simply absent
// from the result.
func (c *Client) TickerPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	body, err := c.get(ctx, "/api/v3/ticker/price", nil)
	if err != nil {
		return nil, fmt.Errorf("ticker prices: %w", err)
	}

	var rows []tickerRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("ticker prices: decode: %w", err)
	}

	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}

	out := make(map[string]float64, len(symbols))
	for _, row := range rows {
		if !want[row.Symbol] {
			continue
		}
		px, err := strconv.ParseFloat(row.Price, 64)
		if err != nil {
			continue
		}
		out[row.Symbol] = px
	}
	return out, nil
}

// Klines fetches up to limit most recent candles for symbol at the given
// interval (e.g. "1m").
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v3/klines", q)
	if err != nil {
		return nil, fmt.Errorf("klines %s: %w", symbol, err)
	}

	// Kline rows are positional arrays:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("klines %s: decode: %w", symbol, err)
	}

	candles := make([]market.Candle, 0, len(rows))
	for _, row := range rows {
		c, err := candleFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("klines %s: %w", symbol, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, path)
	}

	return io.ReadAll(resp.Body)
}

func candleFromRow(row []any) (market.Candle, error) {
	if len(row) < 6 {
		return market.Candle{}, fmt.Errorf("kline row has %d fields, want at least 6", len(row))
	}

	openTime, ok := row[0].(float64)
	if !ok {
		return market.Candle{}, fmt.Errorf("kline open time is %T, want number", row[0])
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := row[i].(string)
		if !ok {
			return market.Candle{}, fmt.Errorf("kline field %d is %T, want string", i, row[i])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		fields[i-1] = v
	}

	return market.Candle{
		Time:   int64(openTime),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}
