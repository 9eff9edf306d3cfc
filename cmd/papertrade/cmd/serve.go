package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrade/book"
	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/feed"
	"github.com/rustyeddy/papertrade/hub"
	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/server"
	"github.com/rustyeddy/papertrade/sim"
)

var (
	cfgFile   string
	addrFlag  string
	staticDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulator and dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides config and PORT)")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "static dashboard directory (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	// Optional; absence of a .env file is not an error.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	cfg := config.Default()
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
	}

	addr := cfg.Server.Addr
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	if addrFlag != "" {
		addr = addrFlag
	}
	if staticDir != "" {
		cfg.Server.StaticDir = staticDir
	}

	jnl, err := buildJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer jnl.Close()

	prices := market.NewPriceStore()
	candles := market.NewCandleStore()
	tape := sim.NewTape(sim.DefaultTapeCapacity)

	engine := sim.NewEngine(sim.Config{
		Cash:                  cfg.Account.Cash,
		Leverage:              cfg.Account.Leverage,
		InitialMarginRate:     cfg.Account.InitialMarginRate,
		MaintenanceMarginRate: cfg.Account.MaintenanceMarginRate,
		Symbols:               cfg.Symbols,
	}, prices, tape, jnl)

	h := hub.New(engine.Snapshot, logger)
	engine.SetSnapshotListener(h)
	tape.OnInsert(h.BroadcastTrade)

	books := book.NewGenerator(prices, nil)
	noise := sim.NewNoise(prices, tape, cfg.Symbols, nil)

	poller := feed.NewPoller(feed.NewClient(cfg.Feed.BaseURL), prices, candles, cfg.Symbols, logger)
	tickerEvery, _ := cfg.Feed.ParseTickerInterval()
	klinesEvery, _ := cfg.Feed.ParseKlineInterval()
	poller.SetIntervals(tickerEvery, klinesEvery, cfg.Feed.CandleLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go poller.Run(ctx)
	go noise.Run(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: server.New(engine, books, prices, candles, h, cfg.Server.StaticDir, logger).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("sim dashboard listening",
		zap.String("addr", addr),
		zap.Strings("symbols", cfg.Symbols),
		zap.Float64("cash", cfg.Account.Cash),
		zap.Float64("leverage", cfg.Account.Leverage))

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func buildJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "", "none":
		return journal.Nop(), nil
	case "csv":
		return journal.NewCSV(cfg.FillsFile, cfg.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
}
