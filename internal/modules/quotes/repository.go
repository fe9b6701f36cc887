// Package quotes provides persistent caching for market quotes.
// Rows are stored as msgpack blobs with expiration timestamps so the
// in-memory price cache can warm-start across restarts.
package quotes

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tmarkov/tradebook/internal/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
	symbol     TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quotes_expires_at ON quotes(expires_at);
`

// Row is the payload persisted per instrument.
type Row struct {
	Symbol    string  `msgpack:"symbol"`
	Price     float64 `msgpack:"price"`
	FetchedAt int64   `msgpack:"fetched_at"` // Unix seconds
}

// Stored is a Row together with its expiration.
type Stored struct {
	Row       Row
	ExpiresAt time.Time
}

// Repository provides cache operations for persisted quotes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new quote cache repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the quotes table.
func (r *Repository) Migrate() error {
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate quotes table: %w", err)
	}
	return nil
}

// Store upserts a quote with expiration = fetchedAt + ttl.
func (r *Repository) Store(symbol string, price float64, fetchedAt time.Time, ttl time.Duration) error {
	data, err := msgpack.Marshal(Row{
		Symbol:    symbol,
		Price:     price,
		FetchedAt: fetchedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal quote for %s: %w", symbol, err)
	}

	expiresAt := fetchedAt.Add(ttl).Unix()
	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)",
		symbol, data, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store quote for %s: %w", symbol, err)
	}
	return nil
}

// StoreBatch upserts a set of quotes in one transaction, so a refresh cycle
// either lands as a whole or not at all. Expiration is FetchedAt + ttl.
func (r *Repository) StoreBatch(batch []Row, ttl time.Duration) error {
	if len(batch) == 0 {
		return nil
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			"INSERT OR REPLACE INTO quotes (symbol, data, expires_at) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare quote upsert: %w", err)
		}
		defer stmt.Close()

		for _, row := range batch {
			data, err := msgpack.Marshal(row)
			if err != nil {
				return fmt.Errorf("failed to marshal quote for %s: %w", row.Symbol, err)
			}
			expiresAt := time.Unix(row.FetchedAt, 0).Add(ttl).Unix()
			if _, err := stmt.Exec(row.Symbol, data, expiresAt); err != nil {
				return fmt.Errorf("failed to store quote for %s: %w", row.Symbol, err)
			}
		}
		return nil
	})
}

// Get returns the quote for symbol, or nil when missing or expired.
func (r *Repository) Get(symbol string, now time.Time) (*Stored, error) {
	var data []byte
	var expiresAt int64
	err := r.db.QueryRow(
		"SELECT data, expires_at FROM quotes WHERE symbol = ? AND expires_at > ?",
		symbol, now.Unix(),
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}

	var row Row
	if err := msgpack.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote for %s: %w", symbol, err)
	}
	return &Stored{Row: row, ExpiresAt: time.Unix(expiresAt, 0)}, nil
}

// AllLive returns every unexpired quote, for warm-starting the memory cache.
func (r *Repository) AllLive(now time.Time) ([]Stored, error) {
	rows, err := r.db.Query(
		"SELECT data, expires_at FROM quotes WHERE expires_at > ? ORDER BY symbol",
		now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var result []Stored
	for rows.Next() {
		var data []byte
		var expiresAt int64
		if err := rows.Scan(&data, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote row: %w", err)
		}
		var row Row
		if err := msgpack.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quote row: %w", err)
		}
		result = append(result, Stored{Row: row, ExpiresAt: time.Unix(expiresAt, 0)})
	}
	return result, rows.Err()
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (r *Repository) PurgeExpired(now time.Time) (int64, error) {
	res, err := r.db.Exec("DELETE FROM quotes WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired quotes: %w", err)
	}
	return res.RowsAffected()
}
