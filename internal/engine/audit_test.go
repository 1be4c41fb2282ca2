package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymatsuda/cashpoint/internal/device"
	"github.com/ymatsuda/cashpoint/internal/ledger"
	"github.com/ymatsuda/cashpoint/internal/model"
)

type mockAudit struct {
	events []model.AuditEvent
	err    error
}

func (m *mockAudit) RecordEvent(_ context.Context, event model.AuditEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func auditEngine(t *testing.T, audit AuditLog) (*Engine, *device.MockClient) {
	t.Helper()

	mock := device.NewMockClient()
	l, err := ledger.NewCSVLedger(filepath.Join(t.TempDir(), "transactions.csv"))
	require.NoError(t, err)

	return New(mock, l, WithAuditLog(audit)), mock
}

func TestEngine_AuditTrail(t *testing.T) {
	audit := &mockAudit{}
	e, mock := auditEngine(t, audit)

	submitPending(t, e, mock, "abc-123")

	mock.QueryStatusFn = func(_ context.Context, _ string) (string, error) {
		return "user cancelled", nil
	}
	_, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)

	require.Len(t, audit.events, 2)

	assert.Equal(t, model.AuditSubmitted, audit.events[0].Event)
	assert.Equal(t, "abc-123", audit.events[0].TransactionID)
	assert.Equal(t, model.StatusPending, audit.events[0].ToStatus)

	assert.Equal(t, model.AuditTransitioned, audit.events[1].Event)
	assert.Equal(t, model.StatusPending, audit.events[1].FromStatus)
	assert.Equal(t, model.StatusFailed, audit.events[1].ToStatus)
	assert.Equal(t, "user cancelled", audit.events[1].Detail)
	assert.NotEmpty(t, audit.events[1].RunID)
}

func TestEngine_AuditFailureDoesNotFailOperation(t *testing.T) {
	audit := &mockAudit{err: assert.AnError}
	e, mock := auditEngine(t, audit)

	submitPending(t, e, mock, "abc-123")

	mock.QueryStatusFn = func(_ context.Context, _ string) (string, error) {
		return "Success", nil
	}
	result, err := e.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
}
