// Package session tracks whether the current operator is authenticated.
//
// The gate is a client-side convenience, not a security boundary: the
// device itself is the authority on permitted operations and performs no
// authorization check on our behalf. Session state is process-local and
// never persisted.
package session

import (
	"context"
	"log/slog"
)

// Authenticator is the slice of the device client the gate needs.
type Authenticator interface {
	Login(ctx context.Context, account, password string) error
}

// Gate is a binary authentication gate over the device's login call.
type Gate struct {
	client        Authenticator
	authenticated bool
}

// NewGate creates an unauthenticated gate backed by the given client.
func NewGate(client Authenticator) *Gate {
	return &Gate{client: client}
}

// Login delegates to the device and flips the gate open on success. A
// failed login leaves the gate closed and returns the device error.
func (g *Gate) Login(ctx context.Context, account, password string) error {
	if err := g.client.Login(ctx, account, password); err != nil {
		g.authenticated = false
		return err
	}

	g.authenticated = true
	slog.Debug("operator authenticated", "account", account)
	return nil
}

// IsAuthenticated reports whether a login has succeeded in this process.
func (g *Gate) IsAuthenticated() bool {
	return g.authenticated
}
