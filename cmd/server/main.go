// Package main is the entry point for the tradebook server: a trading
// journal with a performance analytics engine. It wires the trade ledger,
// the FIFO matcher, the holdings aggregator with its quote cache, the
// expectation model and the profit-target planner behind an HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/clients/marketdata"
	"github.com/tmarkov/tradebook/internal/config"
	"github.com/tmarkov/tradebook/internal/database"
	"github.com/tmarkov/tradebook/internal/domain"
	"github.com/tmarkov/tradebook/internal/modules/analytics"
	analyticshandlers "github.com/tmarkov/tradebook/internal/modules/analytics/handlers"
	"github.com/tmarkov/tradebook/internal/modules/holdings"
	"github.com/tmarkov/tradebook/internal/modules/journal"
	journalhandlers "github.com/tmarkov/tradebook/internal/modules/journal/handlers"
	"github.com/tmarkov/tradebook/internal/modules/matching"
	"github.com/tmarkov/tradebook/internal/modules/planning"
	planninghandlers "github.com/tmarkov/tradebook/internal/modules/planning/handlers"
	"github.com/tmarkov/tradebook/internal/modules/quotes"
	"github.com/tmarkov/tradebook/internal/scheduler"
	"github.com/tmarkov/tradebook/internal/server"
	"github.com/tmarkov/tradebook/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Float64("base_capital", cfg.BaseCapital).
		Msg("Starting tradebook")

	// Databases. The ledger holds the immutable trade journal; the cache
	// holds ephemeral quote rows and can be deleted at any time.
	ledgerDB, err := database.New(database.Config{
		Path:    cfg.LedgerPath(),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    cfg.CachePath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	tradeRepo := journal.NewTradeRepository(ledgerDB.Conn())
	if err := tradeRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate ledger database")
	}
	quoteRepo := quotes.NewRepository(cacheDB.Conn())
	if err := quoteRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	clock := domain.SystemClock{}

	// Price pipeline: HTTP client behind a TTL cache, warm-started from the
	// persisted quote rows.
	priceClient := marketdata.NewClient(cfg.MarketDataURL, cfg.PriceLookupTimeout, log)
	priceCache := holdings.NewPriceCache(priceClient, cfg.PriceTTL, clock, log)
	warmStartCache(priceCache, quoteRepo, clock, log)

	matcher := matching.NewMatcher(log)
	aggregator := holdings.NewAggregator(priceCache, cfg.PriceLookupTimeout, log)

	expectation, err := analytics.NewExpectationCalculator(
		analytics.DefaultOutcomes(), cfg.ExpectedHoldingDays, cfg.ExpectedSuccessRate)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid expectation outcome table")
	}

	thresholds := analytics.DefaultThresholds()
	thresholds.HoldingDaysBandPct = cfg.HoldingDaysBandPct

	analyticsService := analytics.NewService(
		tradeRepo,
		analytics.NewActualCalculator(matcher, aggregator, log),
		expectation,
		analytics.NewAnalyzer(thresholds),
		matcher,
		aggregator,
		clock,
		analytics.ServiceConfig{
			BaseCapital:           cfg.BaseCapital,
			BaseCapitalStart:      cfg.BaseCapitalStart,
			IncludePrestartCounts: cfg.IncludePrestartCounts,
		},
		log,
	)

	journalService := journal.NewService(tradeRepo, clock, cfg.BaseCapitalStart, log)
	planner := planning.NewPlanner(log)

	// Background quote refresh keeps the cache warm for open positions.
	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshQuotesJob(
		analyticsService, priceClient, priceCache, quoteRepo,
		cfg.PriceTTL, cfg.PriceLookupTimeout, clock, log,
	)
	if err := sched.AddJob(cfg.QuoteRefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register quote refresh job")
	}
	sched.Start()

	// First refresh runs immediately so the cache is warm before the first
	// request instead of waiting for the schedule.
	if err := sched.RunNow(refreshJob); err != nil {
		log.Warn().Err(err).Msg("Initial quote refresh failed")
	}

	srv := server.New(server.Config{
		Log:      log,
		Cfg:      cfg,
		LedgerDB: ledgerDB,
		CacheDB:  cacheDB,
		Modules: []server.RouteRegistrar{
			journalhandlers.NewHandler(journalService, log),
			analyticshandlers.NewHandler(analyticsService, log),
			planninghandlers.NewHandler(planner, log),
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Tradebook stopped")
}

// warmStartCache loads unexpired persisted quotes into the memory cache so
// the first aggregations after a restart do not hammer the quote service.
func warmStartCache(cache *holdings.PriceCache, repo *quotes.Repository, clock domain.Clock, log zerolog.Logger) {
	stored, err := repo.AllLive(clock.Now())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to warm-start quote cache")
		return
	}

	for _, s := range stored {
		cache.Warm(holdings.CachedQuote{
			Symbol:    s.Row.Symbol,
			Price:     s.Row.Price,
			ExpiresAt: s.ExpiresAt,
		})
	}

	if len(stored) > 0 {
		log.Info().Int("quotes", len(stored)).Msg("Quote cache warm-started")
	}
}
