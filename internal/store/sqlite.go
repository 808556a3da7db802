package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

var _ SignalStore = (*SQLiteStore)(nil)
var _ RunStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	date    TEXT NOT NULL,
	symbol  TEXT NOT NULL,
	action  TEXT NOT NULL,
	price   REAL NOT NULL,
	reason  TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (date, symbol, action)
);
CREATE TABLE IF NOT EXISTS runs (
	batch_id       TEXT NOT NULL,
	symbol         TEXT NOT NULL,
	ran_at         TEXT NOT NULL,
	trades         INTEGER NOT NULL,
	final_capital  REAL NOT NULL,
	position_value REAL NOT NULL,
	return_pct     REAL NOT NULL,
	status         TEXT NOT NULL,
	max_drawdown   REAL NOT NULL,
	PRIMARY KEY (batch_id, symbol)
);
CREATE INDEX IF NOT EXISTS runs_symbol_ran_at ON runs (symbol, ran_at);
`

// SQLiteStore implements SignalStore and RunStore on a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSignals upserts signals on (date, symbol, action).
func (s *SQLiteStore) SaveSignals(ctx context.Context, signals []types.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO signals (date, symbol, action, price, reason, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (date, symbol, action) DO UPDATE SET price = excluded.price, reason = excluded.reason`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sig := range signals {
			if _, err := stmt.ExecContext(ctx, sig.Date.Format(time.DateOnly), sig.Symbol, string(sig.Action), sig.Price, sig.Reason, now); err != nil {
				return fmt.Errorf("saving signal %s: %w", sig.Key(), err)
			}
		}
		return nil
	})
}

// ListSignals implements SignalStore.
func (s *SQLiteStore) ListSignals(ctx context.Context, symbol string, since time.Time) ([]types.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, symbol, action, price, reason FROM signals
		WHERE date >= ? AND (? = '' OR symbol = ?)
		ORDER BY date, symbol, action`,
		since.Format(time.DateOnly), symbol, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Signal
	for rows.Next() {
		var (
			sig    types.Signal
			date   string
			action string
		)
		if err := rows.Scan(&date, &sig.Symbol, &action, &sig.Price, &sig.Reason); err != nil {
			return nil, err
		}
		if sig.Date, err = time.Parse(time.DateOnly, date); err != nil {
			return nil, fmt.Errorf("bad stored date %q: %w", date, err)
		}
		sig.Action = types.Side(action)
		out = append(out, sig)
	}
	return out, rows.Err()
}

// SaveRuns upserts run summaries on (batch id, symbol).
func (s *SQLiteStore) SaveRuns(ctx context.Context, runs []RunRecord) error {
	if len(runs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO runs
			(batch_id, symbol, ran_at, trades, final_capital, position_value, return_pct, status, max_drawdown)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range runs {
			if _, err := stmt.ExecContext(ctx, r.BatchID, r.Symbol, r.RanAt.UTC().Format(time.RFC3339Nano), r.Trades,
				r.FinalCapital, r.PositionValue, r.ReturnPct, r.Status, r.MaxDrawdown); err != nil {
				return fmt.Errorf("saving run %s/%s: %w", r.BatchID, r.Symbol, err)
			}
		}
		return nil
	})
}

// ListRuns returns the latest runs for symbol, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, symbol, ran_at, trades, final_capital, position_value, return_pct, status, max_drawdown
		FROM runs WHERE symbol = ? ORDER BY ran_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r     RunRecord
			ranAt string
		)
		if err := rows.Scan(&r.BatchID, &r.Symbol, &ranAt, &r.Trades, &r.FinalCapital, &r.PositionValue,
			&r.ReturnPct, &r.Status, &r.MaxDrawdown); err != nil {
			return nil, err
		}
		if r.RanAt, err = time.Parse(time.RFC3339Nano, ranAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
