// Package journal owns the trade ledger: persistence and intake validation
// for executed buy/sell entries.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tmarkov/tradebook/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ref         TEXT NOT NULL UNIQUE,
	symbol      TEXT NOT NULL,
	side        TEXT NOT NULL,
	quantity    INTEGER NOT NULL,
	price       REAL NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	executed_at INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades(executed_at, id);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`

// Matching depends on a stable replay order, so every read path orders by
// (executed_at, id). The id tiebreak preserves insertion order for trades
// executed in the same second.
const tradeColumns = "id, ref, symbol, side, quantity, price, reason, executed_at, created_at"

// TradeRepository provides CRUD operations for the trade ledger.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository creates a new trade repository.
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Migrate creates the trades table.
func (r *TradeRepository) Migrate() error {
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate trades table: %w", err)
	}
	return nil
}

// Create inserts a trade and fills in its assigned ID.
func (r *TradeRepository) Create(t *domain.Trade) error {
	res, err := r.db.Exec(
		"INSERT INTO trades (ref, symbol, side, quantity, price, reason, executed_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		t.Ref, t.Symbol, string(t.Side), t.Quantity, t.Price, t.Reason, t.ExecutedAt.Unix(), t.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted trade id: %w", err)
	}
	t.ID = id
	return nil
}

// GetByID returns one trade, or nil when it does not exist.
func (r *TradeRepository) GetByID(id int64) (*domain.Trade, error) {
	row := r.db.QueryRow("SELECT "+tradeColumns+" FROM trades WHERE id = ?", id)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %d: %w", id, err)
	}
	return &t, nil
}

// ListAll returns every trade in replay order.
func (r *TradeRepository) ListAll() ([]domain.Trade, error) {
	return r.list("SELECT " + tradeColumns + " FROM trades ORDER BY executed_at, id")
}

// ListBetween returns trades executed in [start, end) in replay order.
func (r *TradeRepository) ListBetween(start, end time.Time) ([]domain.Trade, error) {
	return r.list(
		"SELECT "+tradeColumns+" FROM trades WHERE executed_at >= ? AND executed_at < ? ORDER BY executed_at, id",
		start.Unix(), end.Unix(),
	)
}

// CountAll returns the total number of trades in the ledger.
func (r *TradeRepository) CountAll() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

func (r *TradeRepository) list(query string, args ...interface{}) ([]domain.Trade, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row scannable) (domain.Trade, error) {
	var t domain.Trade
	var side string
	var executedAt, createdAt int64

	err := row.Scan(&t.ID, &t.Ref, &t.Symbol, &side, &t.Quantity, &t.Price, &t.Reason, &executedAt, &createdAt)
	if err != nil {
		return domain.Trade{}, err
	}

	t.Side = domain.TradeSide(side)
	t.ExecutedAt = time.Unix(executedAt, 0).UTC()
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return t, nil
}
