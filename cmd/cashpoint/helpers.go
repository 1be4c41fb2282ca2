package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ymatsuda/cashpoint/internal/config"
	"github.com/ymatsuda/cashpoint/internal/device"
	"github.com/ymatsuda/cashpoint/internal/ledger"
	"github.com/ymatsuda/cashpoint/internal/session"
	"github.com/ymatsuda/cashpoint/internal/storage"
)

func newDeviceClient() (*device.Client, error) {
	client, err := device.NewClient(viper.GetString("api.base_url"), viper.GetDuration("api.timeout"))
	if err != nil {
		return nil, fmt.Errorf("failed to create device client: %w", err)
	}
	return client, nil
}

func openLedger() (*ledger.CSVLedger, error) {
	path := config.ExpandPath(viper.GetString("ledger.path"))
	l, err := ledger.NewCSVLedger(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return l, nil
}

func openAuditStore(ctx context.Context) (*storage.AuditStore, error) {
	path := config.ExpandPath(viper.GetString("audit.path"))
	store, err := storage.NewAuditStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate audit store: %w", err)
	}
	return store, nil
}

// authenticate opens the session gate with the configured credentials.
// Gated commands call this before touching the device; the gate is a
// client-side convenience and the device stays the real authority.
func authenticate(ctx context.Context, client *device.Client) (*session.Gate, error) {
	gate := session.NewGate(client)
	err := gate.Login(ctx, viper.GetString("auth.username"), viper.GetString("auth.password"))
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return gate, nil
}
