package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mstgnz/posgate/infra/logger"
	"github.com/mstgnz/posgate/provider"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteDriver = "sqlite"

// SQLiteLedger is the default single-node recorder
type SQLiteLedger struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteLedger opens (and creates) the ledger database at dbPath
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	l := &SQLiteLedger{db: db, path: dbPath}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite ledger initialized", logger.LogContext{Fields: map[string]any{"path": dbPath}})
	return l, nil
}

func (l *SQLiteLedger) initSchema() error {
	_, err := l.db.Exec(`
	CREATE TABLE IF NOT EXISTS payment_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		order_id TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		status TEXT NOT NULL,
		verified INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(order_id, transaction_id)
	);

	CREATE INDEX IF NOT EXISTS idx_payment_records_order ON payment_records(order_id);
	`)
	return err
}

// retryOperation retries operation while SQLite reports the database busy
func (l *SQLiteLedger) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}

		lastErr = err
		if attempt < maxRetries {
			// 10ms, 20ms, 40ms...
			backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
			logger.Warn("SQLite busy, retrying", logger.LogContext{Fields: map[string]any{
				"backoff": backoff.String(),
				"attempt": attempt + 1,
			}})
			time.Sleep(backoff)
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Record implements Recorder
func (l *SQLiteLedger) Record(ctx context.Context, req provider.RecordingRequest) (written bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() { observe(sqliteDriver, written, err) }()

	err = l.retryOperation(func() error {
		written, err = l.record(ctx, req)
		return err
	}, 3)
	return written, err
}

func (l *SQLiteLedger) record(ctx context.Context, req provider.RecordingRequest) (bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO payment_records (provider, order_id, transaction_id, status, verified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(order_id, transaction_id) DO NOTHING`,
		req.Provider, req.OrderID, req.TransactionID, string(req.Status), req.Verified)
	if err != nil {
		return false, fmt.Errorf("failed to insert payment record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return true, tx.Commit()
	}

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT status FROM payment_records WHERE order_id = ? AND transaction_id = ?`,
		req.OrderID, req.TransactionID).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("failed to load payment record: %w", err)
	}

	act, err := decide(provider.RecordedStatus(existing), req.Status)
	if err != nil || act == actionSkip {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payment_records SET status = ?, verified = ?, updated_at = CURRENT_TIMESTAMP
		WHERE order_id = ? AND transaction_id = ?`,
		string(req.Status), req.Verified, req.OrderID, req.TransactionID)
	if err != nil {
		return false, fmt.Errorf("failed to update payment record: %w", err)
	}
	return true, tx.Commit()
}

// ByOrder implements Recorder
func (l *SQLiteLedger) ByOrder(ctx context.Context, orderID string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT provider, order_id, transaction_id, status, verified, created_at, updated_at
		FROM payment_records WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(&e.Provider, &e.OrderID, &e.TransactionID, &status, &e.Verified, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment record: %w", err)
		}
		e.Status = provider.RecordedStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *SQLiteLedger) Driver() string { return sqliteDriver }

// Ping checks the database is reachable
func (l *SQLiteLedger) Ping(ctx context.Context) error {
	if l.db == nil {
		return errors.New("ledger closed")
	}
	return l.db.PingContext(ctx)
}

// Close closes the database
func (l *SQLiteLedger) Close() error {
	if l.db == nil {
		return errors.New("ledger already closed")
	}
	err := l.db.Close()
	l.db = nil
	return err
}
