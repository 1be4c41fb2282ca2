// Package storage implements the local audit log on SQLite.
//
// The audit log records every submission and status transition for
// after-the-fact forensics. It is supplementary: the CSV ledger remains the
// sole source of truth for transaction state, and audit writes must never
// fail a withdrawal or a reconciliation pass.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/ymatsuda/cashpoint/internal/model"
)

// AuditStore persists audit events in a local SQLite database.
type AuditStore struct {
	db     *sql.DB
	dbPath string
}

// NewAuditStore opens (or creates) the audit database at dbPath.
func NewAuditStore(dbPath string) (*AuditStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("audit database path is required")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &AuditStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// RecordEvent appends one audit event.
func (s *AuditStore) RecordEvent(ctx context.Context, event model.AuditEvent) error {
	if event.TransactionID == "" {
		return fmt.Errorf("audit event requires a transaction id")
	}
	if event.Event == "" {
		return fmt.Errorf("audit event requires an event type")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (run_id, transaction_id, event, from_status, to_status, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.RunID, event.TransactionID, string(event.Event),
		string(event.FromStatus), string(event.ToStatus), event.Detail)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	return nil
}

// ListEvents returns the most recent audit events, newest first.
func (s *AuditStore) ListEvents(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, transaction_id, event, from_status, to_status, detail, created_at
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.AuditEvent
	for rows.Next() {
		var event model.AuditEvent
		var eventType, fromStatus, toStatus string

		if err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.TransactionID,
			&eventType,
			&fromStatus,
			&toStatus,
			&event.Detail,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}

		event.Event = model.AuditEventType(eventType)
		event.FromStatus = model.Status(fromStatus)
		event.ToStatus = model.Status(toStatus)
		events = append(events, event)
	}

	return events, rows.Err()
}
