package domain

import (
	"context"
	"time"
)

// PriceSource is the live market-price lookup. Implementations must honor the
// context deadline; a failed or expired lookup returns a DataUnavailableError.
type PriceSource interface {
	Quote(ctx context.Context, symbol string) (float64, error)
}

// Clock abstracts time.Now so caches and window math are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
