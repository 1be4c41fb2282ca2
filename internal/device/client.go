// Package device provides a client for the cash-dispensing device's HTTP API.
//
// Every operation returns either a TransportError (network, timeout, or
// HTTP-level failure) or a RemoteError (the device answered but reported
// failure). Callers discriminate with errors.As; nothing here panics on a
// well-formed unsuccessful response.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every device call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// UnknownTransactionID is recorded when the device acknowledges a withdrawal
// without returning a uuid. Carried over from the device contract as-is:
// multiple withdrawals can collide on this placeholder, and ledger updates
// then hit the first match by scan order.
const UnknownTransactionID = "Unknown"

// Client is a stateless binding to the remote device API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// envelope is the response shape shared by every device endpoint.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	ErrorMsg  string          `json:"errorMsg"`
	ErrorCode int             `json:"errorCode"`
	IsSuccess bool            `json:"isSuccess"`
}

// NewClient creates a device client for the given base URL. A non-positive
// timeout falls back to DefaultTimeout; calls never wait indefinitely.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("device base URL is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Login authenticates the operator against the device. A nil return means
// the device accepted the credentials.
func (c *Client) Login(ctx context.Context, account, password string) error {
	body := struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}{Account: account, Password: password}

	_, err := c.post(ctx, "login", "/api/login", body)
	return err
}

// Withdraw submits a withdrawal for the given amount and returns the
// transaction id assigned by the device.
//
// The amount travels as the exact string the operator entered; it is never
// re-serialized as a number, so leading zeros survive. When the device
// acknowledges the withdrawal but omits the uuid, UnknownTransactionID is
// returned instead of an error.
func (c *Client) Withdraw(ctx context.Context, amount string) (string, error) {
	body := struct {
		Amount string `json:"amount"`
	}{Amount: amount}

	env, err := c.post(ctx, "withdraw", "/api/refund", body)
	if err != nil {
		return "", err
	}

	var data struct {
		UUID string `json:"uuid"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", &TransportError{Op: "withdraw", Err: fmt.Errorf("decode payload: %w", err)}
		}
	}
	if data.UUID == "" {
		slog.Warn("device omitted uuid in withdraw response, using placeholder",
			"placeholder", UnknownTransactionID)
		return UnknownTransactionID, nil
	}

	return data.UUID, nil
}

// QueryStatus returns the raw status string the device reports for a
// transaction id. The vocabulary is the device's own; mapping to ledger
// statuses happens in the reconciliation engine.
func (c *Client) QueryStatus(ctx context.Context, transactionID string) (string, error) {
	body := struct {
		UUID string `json:"uuid"`
	}{UUID: transactionID}

	env, err := c.post(ctx, "query", "/api/query", body)
	if err != nil {
		return "", err
	}

	var data struct {
		Info struct {
			Status string `json:"status"`
		} `json:"info"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", &TransportError{Op: "query", Err: fmt.Errorf("decode payload: %w", err)}
		}
	}

	return data.Info.Status, nil
}

// ErrorMessage resolves a device error code to its description. This
// endpoint deviates from the usual convention: errorCode 200 also counts
// as success.
func (c *Client) ErrorMessage(ctx context.Context, errorCode string) (json.RawMessage, error) {
	body := struct {
		ErrorCode string `json:"errorCode"`
	}{ErrorCode: errorCode}

	env, err := c.do(ctx, "error-message", http.MethodPost, "/api/getErrorMessage", body)
	if err != nil {
		return nil, err
	}
	if !env.IsSuccess && env.ErrorCode != 200 {
		return nil, &RemoteError{Op: "error-message", Message: remoteMessage(env)}
	}

	return env.Data, nil
}

// SystemStatus returns the device's current system status payload.
func (c *Client) SystemStatus(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "system-status", "/api/getStatus")
}

// MachineInfo returns static information about the machine.
func (c *Client) MachineInfo(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "machine-info", "/api/machineInfo")
}

// CashInfo returns the cassette/cash inventory payload.
func (c *Client) CashInfo(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "cash-info", "/api/cashInfo")
}

// SensorStatus returns the device's sensor readings.
func (c *Client) SensorStatus(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "sensor-status", "/api/sensorStatus")
}

// post performs a JSON POST and enforces the common success-flag convention.
func (c *Client) post(ctx context.Context, op, path string, body any) (*envelope, error) {
	env, err := c.do(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if !env.IsSuccess {
		return nil, &RemoteError{Op: op, Message: remoteMessage(env)}
	}
	return env, nil
}

// get performs a GET with the common success-flag convention and returns the
// data payload.
func (c *Client) get(ctx context.Context, op, path string) (json.RawMessage, error) {
	env, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !env.IsSuccess {
		return nil, &RemoteError{Op: op, Message: remoteMessage(env)}
	}
	return env.Data, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) (*envelope, error) {
	var reqBody *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(jsonBody)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("device request", "op", op, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return &env, nil
}

func remoteMessage(env *envelope) string {
	if env.ErrorMsg != "" {
		return env.ErrorMsg
	}
	return fallbackErrorMsg
}
