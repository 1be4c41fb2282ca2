package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymatsuda/cashpoint/internal/common"
	"github.com/ymatsuda/cashpoint/internal/device"
	"github.com/ymatsuda/cashpoint/internal/ledger"
	"github.com/ymatsuda/cashpoint/internal/model"
)

func testEngine(t *testing.T) (*Engine, *device.MockClient, *ledger.CSVLedger) {
	t.Helper()

	mock := device.NewMockClient()
	l, err := ledger.NewCSVLedger(filepath.Join(t.TempDir(), "transactions.csv"))
	require.NoError(t, err)

	return New(mock, l), mock, l
}

func TestSubmitWithdrawal_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       SubmitRequest
		wantField string
	}{
		{
			name:      "empty operator",
			req:       SubmitRequest{Operator: "", Payee: "Acme Corp", Amount: "1000"},
			wantField: "operator",
		},
		{
			name:      "empty payee",
			req:       SubmitRequest{Operator: "Yamada", Payee: "  ", Amount: "1000"},
			wantField: "payee",
		},
		{
			name:      "non-numeric amount",
			req:       SubmitRequest{Operator: "Yamada", Payee: "Acme Corp", Amount: "lots"},
			wantField: "amount",
		},
		{
			name:      "zero amount",
			req:       SubmitRequest{Operator: "Yamada", Payee: "Acme Corp", Amount: "0"},
			wantField: "amount",
		},
		{
			name:      "negative amount",
			req:       SubmitRequest{Operator: "Yamada", Payee: "Acme Corp", Amount: "-100"},
			wantField: "amount",
		},
		{
			name:      "fractional amount",
			req:       SubmitRequest{Operator: "Yamada", Payee: "Acme Corp", Amount: "10.5"},
			wantField: "amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, mock, l := testEngine(t)

			_, err := e.SubmitWithdrawal(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, common.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantField)

			// Validation failures must never reach the device or the ledger.
			assert.Empty(t, mock.WithdrawCalls)
			records, scanErr := l.Scan()
			require.NoError(t, scanErr)
			assert.Empty(t, records)
		})
	}
}

func TestSubmitWithdrawal_Success(t *testing.T) {
	e, mock, l := testEngine(t)
	mock.WithdrawFn = func(_ context.Context, _ string) (string, error) {
		return "abc-123", nil
	}

	record, err := e.SubmitWithdrawal(context.Background(), SubmitRequest{
		Operator:        "Yamada",
		Payee:           "Acme Corp",
		AccountCategory: "travel",
		Amount:          "1000",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, record.Status)
	assert.Equal(t, "abc-123", record.TransactionID)
	assert.Equal(t, int64(1000), record.Amount)
	assert.False(t, record.Timestamp.IsZero())

	records, err := l.Scan()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc-123", records[0].TransactionID)
	assert.Equal(t, model.StatusPending, records[0].Status)
}

func TestSubmitWithdrawal_AmountPassthrough(t *testing.T) {
	e, mock, _ := testEngine(t)

	_, err := e.SubmitWithdrawal(context.Background(), SubmitRequest{
		Operator: "Yamada",
		Payee:    "Acme Corp",
		Amount:   "0100",
	})
	require.NoError(t, err)

	// The device receives the operator's exact input, not a re-serialized
	// integer.
	require.Len(t, mock.WithdrawCalls, 1)
	assert.Equal(t, "0100", mock.WithdrawCalls[0])
}

func TestSubmitWithdrawal_DeviceFailureNothingPersisted(t *testing.T) {
	e, mock, l := testEngine(t)
	mock.WithdrawFn = func(_ context.Context, _ string) (string, error) {
		return "", &device.RemoteError{Op: "withdraw", Message: "insufficient cash"}
	}

	_, err := e.SubmitWithdrawal(context.Background(), SubmitRequest{
		Operator: "Yamada",
		Payee:    "Acme Corp",
		Amount:   "1000",
	})
	require.Error(t, err)
	assert.True(t, device.IsRemote(err))

	records, scanErr := l.Scan()
	require.NoError(t, scanErr)
	assert.Empty(t, records)
}

func submitPending(t *testing.T, e *Engine, mock *device.MockClient, id string) {
	t.Helper()

	mock.WithdrawFn = func(_ context.Context, _ string) (string, error) {
		return id, nil
	}
	_, err := e.SubmitWithdrawal(context.Background(), SubmitRequest{
		Operator: "Yamada",
		Payee:    "Acme Corp",
		Amount:   "1000",
	})
	require.NoError(t, err)
}

func TestReconcilePending_StatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		remoteStatus string
		wantStatus   model.Status
		wantUpdated  int
	}{
		{name: "payment is completed", remoteStatus: "payment is completed", wantStatus: model.StatusCompleted, wantUpdated: 1},
		{name: "Success", remoteStatus: "Success", wantStatus: model.StatusCompleted, wantUpdated: 1},
		{name: "Payment Error", remoteStatus: "Payment Error", wantStatus: model.StatusFailed, wantUpdated: 1},
		{name: "user cancelled", remoteStatus: "user cancelled", wantStatus: model.StatusFailed, wantUpdated: 1},
		{name: "no change", remoteStatus: "no change", wantStatus: model.StatusFailed, wantUpdated: 1},
		{name: "unmapped intermediate state", remoteStatus: "processing", wantStatus: model.StatusPending, wantUpdated: 0},
		{name: "case differs from vocabulary", remoteStatus: "success", wantStatus: model.StatusPending, wantUpdated: 0},
		{name: "empty status", remoteStatus: "", wantStatus: model.StatusPending, wantUpdated: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, mock, l := testEngine(t)
			submitPending(t, e, mock, "abc-123")

			mock.QueryStatusFn = func(_ context.Context, _ string) (string, error) {
				return tt.remoteStatus, nil
			}

			result, err := e.ReconcilePending(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdated, result.Updated)

			records, err := l.Scan()
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantStatus, records[0].Status)
		})
	}
}

func TestReconcilePending_Idempotent(t *testing.T) {
	e, mock, l := testEngine(t)
	submitPending(t, e, mock, "abc-123")

	mock.QueryStatusFn = func(_ context.Context, _ string) (string, error) {
		return "payment is completed", nil
	}

	first, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)

	second, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)

	contentAfter, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, content, contentAfter, "a no-op pass must leave the ledger byte-identical")
}

func TestReconcilePending_TerminalRecordsNeverRequeried(t *testing.T) {
	e, mock, l := testEngine(t)
	submitPending(t, e, mock, "abc-123")

	mock.QueryStatusFn = func(_ context.Context, _ string) (string, error) {
		return "Success", nil
	}
	_, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)

	// The device now claims a different terminal state; the record must not
	// be touched or even queried.
	mock.Reset()
	mock.QueryStatusFn = func(_ context.Context, _ string) (string, error) {
		return "Payment Error", nil
	}

	result, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, mock.QueryStatusCalls)

	records, err := l.Scan()
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, records[0].Status)
}

func TestReconcilePending_QueryFailureLeavesRecordPending(t *testing.T) {
	e, mock, l := testEngine(t)
	submitPending(t, e, mock, "abc-123")
	submitPending(t, e, mock, "def-456")

	mock.QueryStatusFn = func(_ context.Context, transactionID string) (string, error) {
		if transactionID == "abc-123" {
			return "", &device.TransportError{Op: "query", Err: assert.AnError}
		}
		return "Success", nil
	}

	result, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.QueryFailures)

	records, err := l.Scan()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.StatusPending, records[0].Status, "unreachable record stays pending for a later pass")
	assert.Equal(t, model.StatusCompleted, records[1].Status)
}

func TestReconcilePending_EmptyLedger(t *testing.T) {
	e, _, _ := testEngine(t)

	result, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Records)
}

func TestReconcilePending_ProgressCallback(t *testing.T) {
	mock := device.NewMockClient()
	l, err := ledger.NewCSVLedger(filepath.Join(t.TempDir(), "transactions.csv"))
	require.NoError(t, err)

	var calls [][2]int
	e := New(mock, l, WithProgress(func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}))

	submitPending(t, e, mock, "abc-123")
	submitPending(t, e, mock, "def-456")

	_, err = e.ReconcilePending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}

func TestEndToEndWithdrawalLifecycle(t *testing.T) {
	e, mock, l := testEngine(t)

	mock.WithdrawFn = func(_ context.Context, amount string) (string, error) {
		assert.Equal(t, "1000", amount)
		return "abc-123", nil
	}

	record, err := e.SubmitWithdrawal(context.Background(), SubmitRequest{
		Operator:        "Yamada",
		Payee:           "Acme Corp",
		AccountCategory: "travel",
		Amount:          "1000",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc-123", record.TransactionID)

	records, err := l.Scan()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.StatusPending, records[0].Status)
	assert.Equal(t, int64(1000), records[0].Amount)

	mock.QueryStatusFn = func(_ context.Context, transactionID string) (string, error) {
		assert.Equal(t, "abc-123", transactionID)
		return "payment is completed", nil
	}

	result, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	records, err = l.Scan()
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, records[0].Status)
}
