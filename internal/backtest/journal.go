package backtest

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"momentum-backtest/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Journal persists simulated fills to SQLite for analysis and audit.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol       TEXT NOT NULL,
		entry_time   DATETIME NOT NULL,
		exit_time    DATETIME NOT NULL,
		entry_price  REAL NOT NULL,
		exit_price   REAL NOT NULL,
		qty          REAL NOT NULL,
		stop_loss    REAL NOT NULL,
		take_profit  REAL NOT NULL,
		commission   REAL NOT NULL,
		pnl          REAL NOT NULL,
		return_pct   REAL NOT NULL,
		bars_held    INTEGER NOT NULL,
		exit_reason  TEXT NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_entry_time ON trades(entry_time);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened trade journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordTrade persists a completed trade to the journal.
func (j *Journal) RecordTrade(t model.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO trades (symbol, entry_time, exit_time, entry_price, exit_price,
		                     qty, stop_loss, take_profit, commission, pnl, return_pct,
		                     bars_held, exit_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Symbol,
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		t.EntryPrice,
		t.ExitPrice,
		t.Qty,
		t.StopLoss,
		t.TakeProfit,
		t.Commission,
		t.PnL,
		t.ReturnPct,
		t.BarsHeld,
		string(t.ExitReason),
	)
	return err
}

// GetTrades returns the last N journaled trades, newest first.
func (j *Journal) GetTrades(limit int) ([]model.Trade, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT symbol, entry_time, exit_time, entry_price, exit_price, qty,
		        stop_loss, take_profit, commission, pnl, return_pct, bars_held, exit_reason
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		var entryTS, exitTS, reason string
		if err := rows.Scan(&t.Symbol, &entryTS, &exitTS, &t.EntryPrice, &t.ExitPrice,
			&t.Qty, &t.StopLoss, &t.TakeProfit, &t.Commission, &t.PnL, &t.ReturnPct,
			&t.BarsHeld, &reason); err != nil {
			continue
		}
		t.EntryTime, _ = time.Parse(time.RFC3339, entryTS)
		t.ExitTime, _ = time.Parse(time.RFC3339, exitTS)
		t.ExitReason = model.ExitReason(reason)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
