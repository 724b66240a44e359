package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mstgnz/posgate/infra/logger"
	"github.com/mstgnz/posgate/provider"
)

const postgresDriver = "postgres"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS payment_records (
	id BIGSERIAL PRIMARY KEY,
	provider TEXT NOT NULL,
	order_id TEXT NOT NULL,
	transaction_id TEXT NOT NULL,
	status TEXT NOT NULL,
	verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (order_id, transaction_id)
);

CREATE INDEX IF NOT EXISTS idx_payment_records_order ON payment_records(order_id);
`

// PostgresLedger is the recorder for multi-replica deployments
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger connects, pings and ensures the schema
func NewPostgresLedger(ctx context.Context, dsn string) (*PostgresLedger, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 2 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("PostgreSQL ledger initialized")
	return &PostgresLedger{pool: pool}, nil
}

// Record implements Recorder
func (l *PostgresLedger) Record(ctx context.Context, req provider.RecordingRequest) (written bool, err error) {
	defer func() { observe(postgresDriver, written, err) }()

	err = pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO payment_records (provider, order_id, transaction_id, status, verified)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (order_id, transaction_id) DO NOTHING`,
			req.Provider, req.OrderID, req.TransactionID, string(req.Status), req.Verified)
		if err != nil {
			return fmt.Errorf("failed to insert payment record: %w", err)
		}
		if tag.RowsAffected() == 1 {
			written = true
			return nil
		}

		var existing string
		err = tx.QueryRow(ctx, `
			SELECT status FROM payment_records
			WHERE order_id = $1 AND transaction_id = $2 FOR UPDATE`,
			req.OrderID, req.TransactionID).Scan(&existing)
		if err != nil {
			return fmt.Errorf("failed to load payment record: %w", err)
		}

		act, err := decide(provider.RecordedStatus(existing), req.Status)
		if err != nil || act == actionSkip {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE payment_records SET status = $3, verified = $4, updated_at = now()
			WHERE order_id = $1 AND transaction_id = $2`,
			req.OrderID, req.TransactionID, string(req.Status), req.Verified)
		if err != nil {
			return fmt.Errorf("failed to update payment record: %w", err)
		}
		written = true
		return nil
	})
	if err != nil {
		written = false
	}
	return written, err
}

// ByOrder implements Recorder
func (l *PostgresLedger) ByOrder(ctx context.Context, orderID string) ([]Entry, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT provider, order_id, transaction_id, status, verified, created_at, updated_at
		FROM payment_records WHERE order_id = $1 ORDER BY id`, orderID)
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

func (l *PostgresLedger) Driver() string { return postgresDriver }

// Ping checks the pool can reach the server
func (l *PostgresLedger) Ping(ctx context.Context) error {
	if l.pool == nil {
		return errors.New("ledger closed")
	}
	return l.pool.Ping(ctx)
}

// Close closes the pool
func (l *PostgresLedger) Close() error {
	if l.pool == nil {
		return errors.New("ledger already closed")
	}
	l.pool.Close()
	l.pool = nil
	return nil
}
