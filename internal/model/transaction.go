// Package model defines the core domain types shared across the application.
package model

import (
	"time"
)

// Status is the lifecycle state of a withdrawal transaction.
type Status string

// Transaction lifecycle states. Pending is the only non-terminal state;
// Completed and Failed are terminal and are never revisited.
const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is permitted.
// Only Pending -> Completed and Pending -> Failed are legal.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.Terminal()
}

// TransactionRecord is one withdrawal attempt as persisted in the ledger.
// All fields except Status are immutable once recorded; Status is mutated
// only by the reconciliation engine.
type TransactionRecord struct {
	Timestamp       time.Time
	Operator        string
	Payee           string
	AccountCategory string
	TransactionID   string
	Status          Status
	Amount          int64
}
