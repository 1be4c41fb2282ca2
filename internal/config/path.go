// Package config provides configuration defaults and path utilities.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default configuration values, written on first run. The password is
// stored in plaintext alongside the rest of the config; this mirrors the
// device's provisioning defaults and is a known weakness.
const (
	DefaultBaseURL  = "http://127.0.0.1:8080"
	DefaultUsername = "admin"
	DefaultPassword = "0000"
)

// Dir returns the application config directory (~/.config/cashpoint).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cashpoint"), nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
