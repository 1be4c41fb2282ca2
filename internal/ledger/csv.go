// Package ledger implements the durable transaction ledger as a flat CSV file.
//
// The file layout is an external contract: a header row followed by one row
// per withdrawal attempt, columns in the order timestamp, operator, payee,
// account_category, amount, transaction_id, status. Downstream reporting
// reads this file directly, so column order and presence must not change.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ymatsuda/cashpoint/internal/model"
)

// TimestampLayout is the wire format for the timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

// Columns is the ledger header, in contract order.
var Columns = []string{
	"timestamp",
	"operator",
	"payee",
	"account_category",
	"amount",
	"transaction_id",
	"status",
}

// CSVLedger is an append-mostly transaction store backed by a single CSV
// file. It keeps no in-memory state between calls; the file is the sole
// source of truth.
//
// The rewrite paths (UpdateStatus, WriteAll) are read-modify-write and are
// not safe against concurrent writers in other processes.
type CSVLedger struct {
	path string
}

// NewCSVLedger creates a ledger at the given path, creating the parent
// directory if needed. The file itself is created lazily on first append.
func NewCSVLedger(path string) (*CSVLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	return &CSVLedger{path: path}, nil
}

// Path returns the location of the ledger file.
func (l *CSVLedger) Path() string {
	return l.path
}

// EnsureExists creates the ledger file with its header row if it does not
// exist yet. Used on first-run bootstrap; Append also creates the file
// lazily, so calling this is optional.
func (l *CSVLedger) EnsureExists() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat ledger: %w", err)
	}

	return l.WriteAll(nil)
}

// Append adds one record to the end of the ledger, preserving all prior
// rows. The header row is written when the file does not exist yet.
func (l *CSVLedger) Append(record model.TransactionRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat ledger: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write ledger header: %w", err)
		}
	}
	if err := w.Write(encodeRecord(record)); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	return nil
}

// Scan returns every record in file order. A missing or empty ledger yields
// an empty slice, not an error.
func (l *CSVLedger) Scan() ([]model.TransactionRecord, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []model.TransactionRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Columns)

	records := []model.TransactionRecord{}
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		line++
		if line == 1 {
			// header row
			continue
		}

		record, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("ledger line %d: %w", line, err)
		}
		records = append(records, record)
	}

	return records, nil
}

// UpdateStatus overwrites the status of the first record whose transaction
// id matches and reports whether a match was found.
//
// Ids are unique in practice, but the device's "Unknown" placeholder can
// collide; only the first match by scan order is touched.
func (l *CSVLedger) UpdateStatus(transactionID string, status model.Status) (bool, error) {
	if transactionID == "" {
		return false, fmt.Errorf("transaction id is required")
	}
	if !status.Valid() {
		return false, fmt.Errorf("unknown status %q", status)
	}

	records, err := l.Scan()
	if err != nil {
		return false, err
	}

	found := false
	for i := range records {
		if records[i].TransactionID == transactionID {
			records[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	return true, l.WriteAll(records)
}

// WriteAll replaces the ledger content with the given records in one pass.
// The file is rewritten atomically via a temp file rename so a crash cannot
// leave a half-written ledger behind.
func (l *CSVLedger) WriteAll(records []model.TransactionRecord) error {
	for _, record := range records {
		if err := validateRecord(record); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	for _, record := range records {
		if err := w.Write(encodeRecord(record)); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp ledger: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

func encodeRecord(record model.TransactionRecord) []string {
	return []string{
		record.Timestamp.Format(TimestampLayout),
		record.Operator,
		record.Payee,
		record.AccountCategory,
		strconv.FormatInt(record.Amount, 10),
		record.TransactionID,
		string(record.Status),
	}
}

func decodeRecord(row []string) (model.TransactionRecord, error) {
	timestamp, err := time.Parse(TimestampLayout, row[0])
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}

	amount, err := strconv.ParseInt(row[4], 10, 64)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("bad amount %q: %w", row[4], err)
	}

	status := model.Status(row[6])
	if !status.Valid() {
		return model.TransactionRecord{}, fmt.Errorf("unknown status %q", row[6])
	}

	return model.TransactionRecord{
		Timestamp:       timestamp,
		Operator:        row[1],
		Payee:           row[2],
		AccountCategory: row[3],
		Amount:          amount,
		TransactionID:   row[5],
		Status:          status,
	}, nil
}

func validateRecord(record model.TransactionRecord) error {
	if record.TransactionID == "" {
		return fmt.Errorf("record has empty transaction id")
	}
	if record.Amount <= 0 {
		return fmt.Errorf("record amount must be positive, got %d", record.Amount)
	}
	if !record.Status.Valid() {
		return fmt.Errorf("record has unknown status %q", record.Status)
	}
	return nil
}
