// Package server exposes the simulator over HTTP: a small JSON API for the
// dashboard, a server-sent-events stream, a websocket stream, and the static
// front-end files.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rustyeddy/papertrade/book"
	"github.com/rustyeddy/papertrade/hub"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/sim"
)

// DefaultTradesLimit caps /api/trades responses when no limit is given.
const DefaultTradesLimit = 120

type Server struct {
	engine  *sim.Engine
	books   *book.Generator
	prices  *market.PriceStore
	candles *market.CandleStore
	hub     *hub.Hub
	logger  *zap.Logger

	symbols   []string
	staticDir string
}

func New(engine *sim.Engine, books *book.Generator, prices *market.PriceStore, candles *market.CandleStore, h *hub.Hub, staticDir string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:    engine,
		books:     books,
		prices:    prices,
		candles:   candles,
		hub:       h,
		logger:    logger,
		symbols:   engine.Symbols(),
		staticDir: staticDir,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tickers", s.handleTickers)
	mux.HandleFunc("GET /api/candles", s.handleCandles)
	mux.HandleFunc("GET /api/orderbook", s.handleOrderBook)
	mux.HandleFunc("GET /api/trades", s.handleTrades)
	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)
	mux.HandleFunc("POST /api/order", s.handleOrder)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /ws", s.handleWS)

	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}

	return mux
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]*market.Price, len(s.symbols))
	for _, sym := range s.symbols {
		if p, err := s.prices.Get(sym); err == nil {
			cp := p
			out[sym] = &cp
		} else {
			out[sym] = nil
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.candles.Get(symbolParam(r)))
}

func (s *Server) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.books.Generate(symbolParam(r)))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))

	limit := DefaultTradesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	writeJSON(w, http.StatusOK, s.engine.Tape().Recent(symbol, limit))
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

type orderRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Qty    float64 `json:"qty"`
}

type orderResponse struct {
	OK       bool          `json:"ok"`
	Fill     *sim.Fill     `json:"fill,omitempty"`
	Snapshot *sim.Snapshot `json:"snapshot,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, orderResponse{Error: "invalid request body"})
		return
	}

	side, err := sim.ParseSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, orderResponse{Error: err.Error()})
		return
	}

	fill, err := s.engine.Execute(strings.ToUpper(req.Symbol), side, req.Qty)
	if err != nil {
		status := http.StatusInternalServerError
		if isRejection(err) {
			status = http.StatusBadRequest
		}
		s.logger.Info("order rejected",
			zap.String("symbol", req.Symbol),
			zap.String("side", req.Side),
			zap.Float64("qty", req.Qty),
			zap.Error(err))
		writeJSON(w, status, orderResponse{Error: err.Error()})
		return
	}

	snap := s.engine.Snapshot()
	s.logger.Info("order filled",
		zap.String("tradeId", fill.TradeID),
		zap.String("symbol", fill.Symbol),
		zap.String("side", string(fill.Side)),
		zap.Float64("px", fill.Price),
		zap.Float64("qty", fill.Qty))

	writeJSON(w, http.StatusOK, orderResponse{OK: true, Fill: &fill, Snapshot: &snap})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"viewers": s.hub.Viewers(),
	})
}

// isRejection reports whether err is one of the request-local order
// rejections rather than an internal failure.
func isRejection(err error) bool {
	return errors.Is(err, sim.ErrUnsupportedSymbol) ||
		errors.Is(err, sim.ErrInvalidQuantity) ||
		errors.Is(err, sim.ErrPriceUnavailable) ||
		errors.Is(err, sim.ErrInsufficientMargin)
}

func symbolParam(r *http.Request) string {
	sym := strings.ToUpper(r.URL.Query().Get("symbol"))
	if sym == "" {
		sym = "BTCUSDT"
	}
	return sym
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
