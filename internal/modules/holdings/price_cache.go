// Package holdings turns open lots plus live quotes into current positions.
package holdings

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
)

// CachedQuote is one cache entry, exported for persistence snapshots.
type CachedQuote struct {
	Symbol    string
	Price     float64
	ExpiresAt time.Time
}

// PriceCache wraps a PriceSource with a short-lived per-instrument cache.
// Cached reads take a read lock only; a miss triggers a single upstream fetch
// per instrument, with concurrent callers for the same instrument waiting on
// the in-flight fetch instead of duplicating it.
type PriceCache struct {
	source domain.PriceSource
	ttl    time.Duration
	clock  domain.Clock
	log    zerolog.Logger

	mu       sync.RWMutex
	entries  map[string]CachedQuote
	inflight map[string]chan struct{}
}

// NewPriceCache creates a price cache in front of source.
func NewPriceCache(source domain.PriceSource, ttl time.Duration, clock domain.Clock, log zerolog.Logger) *PriceCache {
	return &PriceCache{
		source:   source,
		ttl:      ttl,
		clock:    clock,
		log:      log.With().Str("component", "price_cache").Logger(),
		entries:  make(map[string]CachedQuote),
		inflight: make(map[string]chan struct{}),
	}
}

// Quote returns the cached price for symbol, fetching from the upstream
// source when the entry is missing or expired. Fetch failures are not cached.
func (c *PriceCache) Quote(ctx context.Context, symbol string) (float64, error) {
	for {
		c.mu.RLock()
		entry, ok := c.entries[symbol]
		c.mu.RUnlock()
		if ok && c.clock.Now().Before(entry.ExpiresAt) {
			return entry.Price, nil
		}

		c.mu.Lock()
		// Re-check under the write lock: another caller may have refreshed.
		if entry, ok := c.entries[symbol]; ok && c.clock.Now().Before(entry.ExpiresAt) {
			c.mu.Unlock()
			return entry.Price, nil
		}
		if wait, ok := c.inflight[symbol]; ok {
			c.mu.Unlock()
			select {
			case <-wait:
				continue // In-flight fetch finished; retry the cache.
			case <-ctx.Done():
				return 0, &domain.DataUnavailableError{Symbol: symbol, Err: ctx.Err()}
			}
		}
		done := make(chan struct{})
		c.inflight[symbol] = done
		c.mu.Unlock()

		price, err := c.source.Quote(ctx, symbol)

		c.mu.Lock()
		delete(c.inflight, symbol)
		if err == nil {
			c.entries[symbol] = CachedQuote{
				Symbol:    symbol,
				Price:     price,
				ExpiresAt: c.clock.Now().Add(c.ttl),
			}
		}
		c.mu.Unlock()
		close(done)

		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Price fetch failed")
			if domain.IsDataUnavailable(err) {
				return 0, err
			}
			return 0, &domain.DataUnavailableError{Symbol: symbol, Err: err}
		}
		return price, nil
	}
}

// Warm seeds the cache with a previously persisted quote. Expired entries are
// ignored.
func (c *PriceCache) Warm(q CachedQuote) {
	if !c.clock.Now().Before(q.ExpiresAt) {
		return
	}
	c.mu.Lock()
	c.entries[q.Symbol] = q
	c.mu.Unlock()
}

// Snapshot returns the live (unexpired) cache entries.
func (c *PriceCache) Snapshot() []CachedQuote {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	quotes := make([]CachedQuote, 0, len(c.entries))
	for _, entry := range c.entries {
		if now.Before(entry.ExpiresAt) {
			quotes = append(quotes, entry)
		}
	}
	return quotes
}
