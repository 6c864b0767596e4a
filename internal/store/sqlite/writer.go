// Package sqlite persists OHLCV bars in a local SQLite database so that
// repeated backtests do not re-download history.
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

const insertBatchSize = 500

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/bars.db"

	// ObserveCommit, when set, records the latency of each batch commit.
	ObserveCommit func(d time.Duration)
}

// Writer is a single-connection SQLite writer with transaction batching.
type Writer struct {
	db            *sql.DB
	observeCommit func(d time.Duration)
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// NewWriter creates a SQLite Writer, initializing the database with WAL mode and schema.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db, observeCommit: cfg.ObserveCommit}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol   TEXT    NOT NULL,
			interval TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			open     REAL    NOT NULL,
			high     REAL    NOT NULL,
			low      REAL    NOT NULL,
			close    REAL    NOT NULL,
			volume   REAL    NOT NULL,
			PRIMARY KEY (symbol, interval, ts)
		);
	`)
	return err
}

// WriteBars upserts bars in batched transactions.
func (w *Writer) WriteBars(ctx context.Context, bars []model.Bar) error {
	for start := 0; start < len(bars); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := w.insertBatch(ctx, bars[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) insertBatch(ctx context.Context, bars []model.Bar) error {
	if w.observeCommit != nil {
		start := time.Now()
		defer func() { w.observeCommit(time.Since(start)) }()
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars (symbol, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.Exec(b.Symbol, b.Interval, b.OpenTime.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetLastTimestamp returns the last stored bar timestamp for a symbol/interval.
// Returns 0 if no bars exist.
func (w *Writer) GetLastTimestamp(symbol, interval string) (int64, error) {
	var ts sql.NullInt64
	err := w.db.QueryRow(
		`SELECT MAX(ts) FROM bars WHERE symbol = ? AND interval = ?`,
		symbol, interval,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Close closes the writer.
func (w *Writer) Close() error {
	return w.db.Close()
}
