package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"momentum-backtest/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to the bar archive.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadBars reads bars for a symbol/interval within [from, to), ordered by
// timestamp ascending.
func (r *Reader) ReadBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]model.Bar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, interval, ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval = ? AND ts >= ? AND ts < ?
		ORDER BY ts ASC
	`, symbol, interval, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var tsUnix int64
		if err := rows.Scan(&b.Symbol, &b.Interval, &tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		b.OpenTime = time.Unix(tsUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// CountBars returns the number of stored bars for a symbol/interval.
func (r *Reader) CountBars(symbol, interval string) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM bars WHERE symbol = ? AND interval = ?`,
		symbol, interval,
	).Scan(&n)
	return n, err
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
