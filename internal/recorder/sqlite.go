package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"TradeScout/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			signal        TEXT NOT NULL,
			confidence    REAL,
			risk_score    REAL,
			current_price REAL,
			entry         REAL,
			stop_loss     REAL,
			target        REAL,
			votes         TEXT,
			details       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol)`,

		`CREATE TABLE IF NOT EXISTS portfolio (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			action     TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			side       TEXT,
			quantity   INTEGER,
			entry      REAL,
			stop_loss  REAL,
			target     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_portfolio_ts ON portfolio(timestamp)`,

		`CREATE TABLE IF NOT EXISTS logs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			level     TEXT,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_ts ON logs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(ctx context.Context, runID string, res *model.AnalysisResult) error {
	votes, err := json.Marshal(res.Votes)
	if err != nil {
		return fmt.Errorf("encode votes: %w", err)
	}
	details, err := json.Marshal(res.Details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = r.db.ExecContext(ctx, `INSERT INTO signals
		(run_id, timestamp, symbol, signal, confidence, risk_score, current_price,
		 entry, stop_loss, target, votes, details)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, res.Timestamp.UnixMilli(), res.Symbol, string(res.Signal), res.Confidence, res.RiskScore,
		res.CurrentPrice, res.Entry, res.StopLoss, res.Target, string(votes), string(details),
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordPosition(ctx context.Context, evt *PositionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := evt.Position
	_, err := r.db.ExecContext(ctx, `INSERT INTO portfolio
		(timestamp, action, symbol, side, quantity, entry, stop_loss, target)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().UnixMilli(), evt.Action, p.Symbol, string(p.Side), p.Quantity, p.Entry, p.StopLoss, p.Target,
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordLog(ctx context.Context, level, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO logs (timestamp, level, message) VALUES (?,?,?)`,
		time.Now().UnixMilli(), level, message)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

const selectSignals = `SELECT timestamp, symbol, signal, confidence, risk_score, current_price,
	entry, stop_loss, target, votes, details FROM signals`

// RecentSignals returns the newest signals first.
func (r *SQLiteRecorder) RecentSignals(ctx context.Context, limit int) ([]*model.AnalysisResult, error) {
	rows, err := r.db.QueryContext(ctx, selectSignals+` ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	return scanSignals(rows)
}

// SignalsSince returns signals recorded at or after since, oldest first.
func (r *SQLiteRecorder) SignalsSince(ctx context.Context, since time.Time) ([]*model.AnalysisResult, error) {
	rows, err := r.db.QueryContext(ctx, selectSignals+` WHERE timestamp >= ? ORDER BY timestamp, id`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	return scanSignals(rows)
}

func scanSignals(rows *sql.Rows) ([]*model.AnalysisResult, error) {
	defer rows.Close()
	var out []*model.AnalysisResult
	for rows.Next() {
		var (
			res            model.AnalysisResult
			ts             int64
			signal         string
			votes, details string
		)
		if err := rows.Scan(&ts, &res.Symbol, &signal, &res.Confidence, &res.RiskScore, &res.CurrentPrice,
			&res.Entry, &res.StopLoss, &res.Target, &votes, &details); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		res.Timestamp = time.UnixMilli(ts)
		res.Signal = model.Signal(signal)
		if err := json.Unmarshal([]byte(votes), &res.Votes); err != nil {
			return nil, fmt.Errorf("decode votes: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &res.Details); err != nil {
			return nil, fmt.Errorf("decode details: %w", err)
		}
		res.Strategies = make(map[string]model.Signal, len(res.Votes))
		for _, v := range res.Votes {
			res.Strategies[v.Strategy] = v.Signal
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
