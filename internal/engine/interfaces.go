package engine

import (
	"context"

	"github.com/ymatsuda/cashpoint/internal/model"
)

// DeviceClient is the slice of the device API the engine depends on.
type DeviceClient interface {
	Withdraw(ctx context.Context, amount string) (string, error)
	QueryStatus(ctx context.Context, transactionID string) (string, error)
}

// Ledger is the durable record store the engine reads and writes.
type Ledger interface {
	Append(record model.TransactionRecord) error
	Scan() ([]model.TransactionRecord, error)
	WriteAll(records []model.TransactionRecord) error
}

// AuditLog receives lifecycle events. Implementations must tolerate being
// called on every submission and status transition; failures are logged by
// the engine and never propagate.
type AuditLog interface {
	RecordEvent(ctx context.Context, event model.AuditEvent) error
}
