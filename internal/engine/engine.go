// Package engine implements the transaction lifecycle: submitting
// withdrawals and reconciling pending records against the device.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ymatsuda/cashpoint/internal/common"
	"github.com/ymatsuda/cashpoint/internal/model"
)

// remoteStatusMap is the fixed vocabulary mapping device status strings to
// terminal ledger statuses. Matching is exact and case-sensitive; any
// string not in this table leaves the record Pending. Do not normalize.
var remoteStatusMap = map[string]model.Status{
	"payment is completed": model.StatusCompleted,
	"Success":              model.StatusCompleted,
	"Payment Error":        model.StatusFailed,
	"user cancelled":       model.StatusFailed,
	"no change":            model.StatusFailed,
}

// Engine orchestrates withdrawal submission and status reconciliation.
//
// There is no durable state between a successful device withdrawal and the
// ledger append: a crash in that window orphans the remote transaction.
// Known limitation, carried over from the device contract.
type Engine struct {
	client   DeviceClient
	ledger   Ledger
	audit    AuditLog
	progress func(done, total int)
	now      func() time.Time
}

// Option configures optional engine behavior.
type Option func(*Engine)

// WithAuditLog attaches an audit log to the engine.
func WithAuditLog(audit AuditLog) Option {
	return func(e *Engine) {
		e.audit = audit
	}
}

// WithProgress attaches a per-record progress callback for reconciliation.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// New creates an engine over the given device client and ledger.
func New(client DeviceClient, ledger Ledger, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		ledger: ledger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitRequest carries operator input for one withdrawal.
//
// Amount is kept as the raw operator string: it is validated locally as a
// positive integer but travels to the device exactly as entered, leading
// zeros and all.
type SubmitRequest struct {
	Operator        string
	Payee           string
	AccountCategory string
	Amount          string
}

// SubmitWithdrawal validates the request, submits it to the device, and on
// success persists a Pending record. Validation failures never reach the
// device; device failures leave the ledger untouched.
func (e *Engine) SubmitWithdrawal(ctx context.Context, req SubmitRequest) (*model.TransactionRecord, error) {
	amount, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	transactionID, err := e.client.Withdraw(ctx, req.Amount)
	if err != nil {
		return nil, err
	}

	record := model.TransactionRecord{
		Timestamp:       e.now(),
		Operator:        req.Operator,
		Payee:           req.Payee,
		AccountCategory: req.AccountCategory,
		Amount:          amount,
		TransactionID:   transactionID,
		Status:          model.StatusPending,
	}

	if err := e.ledger.Append(record); err != nil {
		// The device already dispensed; losing the local record is the
		// worst failure mode this system has. Surface it loudly.
		slog.Error("withdrawal succeeded remotely but ledger append failed",
			"transaction_id", transactionID, "error", err)
		return nil, fmt.Errorf("failed to record withdrawal %s: %w", transactionID, err)
	}

	e.recordAudit(ctx, model.AuditEvent{
		TransactionID: transactionID,
		Event:         model.AuditSubmitted,
		ToStatus:      model.StatusPending,
		Detail:        fmt.Sprintf("operator=%s payee=%s amount=%d", req.Operator, req.Payee, amount),
	})

	slog.Info("withdrawal submitted",
		"transaction_id", transactionID,
		"operator", req.Operator,
		"amount", amount)

	return &record, nil
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Records       []model.TransactionRecord
	Updated       int
	QueryFailures int
}

// ReconcilePending queries the device for every non-terminal record and
// applies the fixed status vocabulary. Query failures leave the record
// untouched for a later pass; unrecognized status strings are expected
// intermediate states, not errors. Changed records are persisted in a
// single write pass, so re-running with unchanged remote state rewrites
// nothing and reports zero updates.
func (e *Engine) ReconcilePending(ctx context.Context) (*ReconcileResult, error) {
	records, err := e.ledger.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}

	pending := 0
	for _, record := range records {
		if !record.Status.Terminal() {
			pending++
		}
	}

	runID := uuid.NewString()
	result := &ReconcileResult{Records: records}
	done := 0

	for i := range records {
		if records[i].Status.Terminal() {
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		remoteStatus, err := e.client.QueryStatus(ctx, records[i].TransactionID)
		done++
		if e.progress != nil {
			e.progress(done, pending)
		}
		if err != nil {
			// Try again on a later pass; one unreachable record must not
			// block reconciliation of the others.
			result.QueryFailures++
			slog.Warn("status query failed, leaving record pending",
				"transaction_id", records[i].TransactionID, "error", err)
			continue
		}

		next, ok := remoteStatusMap[remoteStatus]
		if !ok {
			slog.Debug("device reported non-terminal status",
				"transaction_id", records[i].TransactionID, "status", remoteStatus)
			continue
		}

		from := records[i].Status
		records[i].Status = next
		result.Updated++

		e.recordAudit(ctx, model.AuditEvent{
			RunID:         runID,
			TransactionID: records[i].TransactionID,
			Event:         model.AuditTransitioned,
			FromStatus:    from,
			ToStatus:      next,
			Detail:        remoteStatus,
		})

		slog.Info("transaction reconciled",
			"transaction_id", records[i].TransactionID,
			"from", from, "to", next, "remote_status", remoteStatus)
	}

	if result.Updated > 0 {
		if err := e.ledger.WriteAll(records); err != nil {
			return nil, fmt.Errorf("failed to persist reconciled records: %w", err)
		}
	}

	result.Records = records
	return result, nil
}

func (e *Engine) recordAudit(ctx context.Context, event model.AuditEvent) {
	if e.audit == nil {
		return
	}
	if err := e.audit.RecordEvent(ctx, event); err != nil {
		slog.Warn("failed to record audit event",
			"transaction_id", event.TransactionID, "event", event.Event, "error", err)
	}
}

func validateRequest(req SubmitRequest) (int64, error) {
	if strings.TrimSpace(req.Operator) == "" {
		return 0, common.NewValidationError("operator", "must not be empty")
	}
	if strings.TrimSpace(req.Payee) == "" {
		return 0, common.NewValidationError("payee", "must not be empty")
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(req.Amount), 10, 64)
	if err != nil {
		return 0, common.NewValidationError("amount", "must be a whole number")
	}
	if amount <= 0 {
		return 0, common.NewValidationError("amount", "must be greater than zero")
	}

	return amount, nil
}
