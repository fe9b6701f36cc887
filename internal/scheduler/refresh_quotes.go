package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
	"github.com/tmarkov/tradebook/internal/modules/holdings"
	"github.com/tmarkov/tradebook/internal/modules/quotes"
)

// SymbolLister reports the instruments that currently have open lots.
type SymbolLister interface {
	OpenSymbols() ([]string, error)
}

// RefreshQuotesJob refetches quotes for open positions so interactive
// aggregations mostly hit a warm cache. Fresh prices are written through to
// the in-memory cache and the persistent quote store.
type RefreshQuotesJob struct {
	symbols SymbolLister
	source  domain.PriceSource
	cache   *holdings.PriceCache
	repo    *quotes.Repository
	ttl     time.Duration
	timeout time.Duration
	clock   domain.Clock
	log     zerolog.Logger
}

// NewRefreshQuotesJob creates the quote refresh job.
func NewRefreshQuotesJob(
	symbols SymbolLister,
	source domain.PriceSource,
	cache *holdings.PriceCache,
	repo *quotes.Repository,
	ttl time.Duration,
	timeout time.Duration,
	clock domain.Clock,
	log zerolog.Logger,
) *RefreshQuotesJob {
	return &RefreshQuotesJob{
		symbols: symbols,
		source:  source,
		cache:   cache,
		repo:    repo,
		ttl:     ttl,
		timeout: timeout,
		clock:   clock,
		log:     log.With().Str("job", "refresh_quotes").Logger(),
	}
}

// Name returns the job name
func (j *RefreshQuotesJob) Name() string {
	return "refresh_quotes"
}

// Run refreshes every open symbol. Individual fetch failures are logged and
// skipped; the job only fails when the symbol list itself is unavailable.
func (j *RefreshQuotesJob) Run() error {
	symbols, err := j.symbols.OpenSymbols()
	if err != nil {
		return fmt.Errorf("failed to list open symbols: %w", err)
	}

	fetched := make([]quotes.Row, 0, len(symbols))
	for _, symbol := range symbols {
		row, err := j.refresh(symbol)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote refresh skipped")
			continue
		}
		fetched = append(fetched, row)
	}

	// Persist the whole cycle in one transaction so a restart never sees a
	// half-written refresh.
	if err := j.repo.StoreBatch(fetched, j.ttl); err != nil {
		return fmt.Errorf("failed to persist refreshed quotes: %w", err)
	}

	if purged, err := j.repo.PurgeExpired(j.clock.Now()); err != nil {
		j.log.Warn().Err(err).Msg("Failed to purge expired quotes")
	} else if purged > 0 {
		j.log.Debug().Int64("purged", purged).Msg("Expired quotes purged")
	}

	j.log.Info().
		Int("symbols", len(symbols)).
		Int("refreshed", len(fetched)).
		Msg("Quote refresh finished")

	return nil
}

func (j *RefreshQuotesJob) refresh(symbol string) (quotes.Row, error) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	price, err := j.source.Quote(ctx, symbol)
	if err != nil {
		return quotes.Row{}, err
	}

	now := j.clock.Now()
	j.cache.Warm(holdings.CachedQuote{
		Symbol:    symbol,
		Price:     price,
		ExpiresAt: now.Add(j.ttl),
	})

	return quotes.Row{Symbol: symbol, Price: price, FetchedAt: now.Unix()}, nil
}
