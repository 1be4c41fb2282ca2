package device

import (
	"context"
	"encoding/json"
)

// MockClient is a mock device client for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	LoginFn       func(ctx context.Context, account, password string) error
	WithdrawFn    func(ctx context.Context, amount string) (string, error)
	QueryStatusFn func(ctx context.Context, transactionID string) (string, error)

	// Call tracking
	LoginCalls       []LoginCall
	WithdrawCalls    []string
	QueryStatusCalls []string
}

// LoginCall records the parameters of a Login call.
type LoginCall struct {
	Account  string
	Password string
}

// NewMockClient creates a new mock device client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Login implements the login operation.
func (m *MockClient) Login(ctx context.Context, account, password string) error {
	m.LoginCalls = append(m.LoginCalls, LoginCall{Account: account, Password: password})

	if m.LoginFn != nil {
		return m.LoginFn(ctx, account, password)
	}
	return nil
}

// Withdraw implements the withdraw operation.
func (m *MockClient) Withdraw(ctx context.Context, amount string) (string, error) {
	m.WithdrawCalls = append(m.WithdrawCalls, amount)

	if m.WithdrawFn != nil {
		return m.WithdrawFn(ctx, amount)
	}
	return "mock-uuid", nil
}

// QueryStatus implements the status query operation.
func (m *MockClient) QueryStatus(ctx context.Context, transactionID string) (string, error) {
	m.QueryStatusCalls = append(m.QueryStatusCalls, transactionID)

	if m.QueryStatusFn != nil {
		return m.QueryStatusFn(ctx, transactionID)
	}
	return "", nil
}

// ErrorMessage returns an empty payload.
func (m *MockClient) ErrorMessage(_ context.Context, _ string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.LoginCalls = nil
	m.WithdrawCalls = nil
	m.QueryStatusCalls = nil
}
