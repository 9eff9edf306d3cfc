package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/papertrade/market"
)

// Poll cadences and history depth, matching the dashboard's expectations.
const (
	DefaultTickerInterval = time.Second
	DefaultKlineInterval  = 15 * time.Second
	DefaultCandleLimit    = 500
)

// Poller keeps the market stores current: ticker prices every second,
// 1m candle history every 15s. Both are primed once at startup so the
// dashboard has data on its first paint.
type Poller struct {
	client  *Client
	prices  *market.PriceStore
	candles *market.CandleStore
	symbols []string
	logger  *zap.Logger

	tickerEvery time.Duration
	klinesEvery time.Duration
	candleLimit int
}

func NewPoller(client *Client, prices *market.PriceStore, candles *market.CandleStore, symbols []string, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		client:      client,
		prices:      prices,
		candles:     candles,
		symbols:     symbols,
		logger:      logger,
		tickerEvery: DefaultTickerInterval,
		klinesEvery: DefaultKlineInterval,
		candleLimit: DefaultCandleLimit,
	}
}

// SetIntervals overrides the default poll cadences. Zero values keep the
// current setting. Call before Run.
func (p *Poller) SetIntervals(ticker, klines time.Duration, candleLimit int) {
	if ticker > 0 {
		p.tickerEvery = ticker
	}
	if klines > 0 {
		p.klinesEvery = klines
	}
	if candleLimit > 0 {
		p.candleLimit = candleLimit
	}
}

// Run primes both stores, then polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.pollTicker(ctx)
	p.pollKlines(ctx)

	tickerT := time.NewTicker(p.tickerEvery)
	klinesT := time.NewTicker(p.klinesEvery)
	defer tickerT.Stop()
	defer klinesT.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tickerT.C:
			p.pollTicker(ctx)
		case <-klinesT.C:
			p.pollKlines(ctx)
		}
	}
}

func (p *Poller) pollTicker(ctx context.Context) {
	prices, err := p.client.TickerPrices(ctx, p.symbols)
	if err != nil {
		p.logger.Warn("ticker poll failed", zap.Error(err))
		return
	}

	now := time.Now()
	for sym, px := range prices {
		p.prices.Set(market.Price{Symbol: sym, Price: px, Time: now})
	}
}

func (p *Poller) pollKlines(ctx context.Context) {
	for _, sym := range p.symbols {
		candles, err := p.client.Klines(ctx, sym, "1m", p.candleLimit)
		if err != nil {
			p.logger.Warn("kline poll failed", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		p.candles.SetAll(sym, candles)
	}
}
