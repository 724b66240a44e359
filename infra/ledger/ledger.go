// Package ledger stores recording requests produced by the callback
// processor. Writes are idempotent on (order id, transaction id).
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mstgnz/posgate/infra/config"
	"github.com/mstgnz/posgate/infra/metrics"
	"github.com/mstgnz/posgate/provider"
)

// ErrStatusConflict is returned when a record already exists for the key
// with a different final status.
var ErrStatusConflict = errors.New("ledger: conflicting status for recorded payment")

// Entry is a stored recording request.
type Entry struct {
	provider.RecordingRequest
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recorder persists recording requests.
type Recorder interface {
	// Record stores req and reports whether anything was written. Replaying
	// an identical request is a no-op.
	Record(ctx context.Context, req provider.RecordingRequest) (bool, error)

	// ByOrder returns every entry for orderID, oldest first
	ByOrder(ctx context.Context, orderID string) ([]Entry, error)

	Driver() string
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the recorder selected by cfg.LedgerDriver
func Open(ctx context.Context, cfg *config.AppConfig) (Recorder, error) {
	switch cfg.LedgerDriver {
	case "", "sqlite":
		return NewSQLiteLedger(cfg.SQLitePath)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("ledger: POSTGRES_DSN is required for the postgres driver")
		}
		return NewPostgresLedger(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("ledger: unknown driver %q", cfg.LedgerDriver)
	}
}

type action int

const (
	actionSkip action = iota
	actionPromote
)

// decide resolves a write against an existing record. A pending record may
// be promoted to a final status once; final statuses never change.
func decide(existing, incoming provider.RecordedStatus) (action, error) {
	switch {
	case existing == incoming:
		return actionSkip, nil
	case existing == provider.StatusPending:
		return actionPromote, nil
	case incoming == provider.StatusPending:
		// late pending notification after a final one
		return actionSkip, nil
	default:
		return actionSkip, fmt.Errorf("%w: %s -> %s", ErrStatusConflict, existing, incoming)
	}
}

func observe(driver string, written bool, err error) {
	switch {
	case err != nil:
		metrics.ObserveLedgerWrite(driver, "error")
	case written:
		metrics.ObserveLedgerWrite(driver, "written")
	default:
		metrics.ObserveLedgerWrite(driver, "duplicate")
	}
}
