package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
)

// Service wraps the trade repository with intake validation and window
// resolution.
type Service struct {
	repo             *TradeRepository
	clock            domain.Clock
	baseCapitalStart time.Time
	log              zerolog.Logger
}

// NewService creates the journal service.
func NewService(repo *TradeRepository, clock domain.Clock, baseCapitalStart time.Time, log zerolog.Logger) *Service {
	return &Service{
		repo:             repo,
		clock:            clock,
		baseCapitalStart: baseCapitalStart,
		log:              log.With().Str("service", "journal").Logger(),
	}
}

// Record validates a trade, stamps it with a ref and creation time, and
// writes it to the ledger.
func (s *Service) Record(t *domain.Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}

	t.Ref = uuid.New().String()
	t.CreatedAt = s.clock.Now()

	if err := s.repo.Create(t); err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}

	s.log.Info().
		Int64("id", t.ID).
		Str("ref", t.Ref).
		Str("symbol", t.Symbol).
		Str("side", string(t.Side)).
		Int64("quantity", t.Quantity).
		Msg("Trade recorded")

	return nil
}

// List returns the trades inside one analytics window in replay order.
func (s *Service) List(timeRange domain.TimeRange) ([]domain.Trade, error) {
	start, end, err := timeRange.Window(s.clock.Now(), s.baseCapitalStart)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBetween(start, end)
}

// Get returns one trade, or nil when it does not exist.
func (s *Service) Get(id int64) (*domain.Trade, error) {
	return s.repo.GetByID(id)
}
