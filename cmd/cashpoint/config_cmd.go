package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ymatsuda/cashpoint/internal/cli"
	"github.com/ymatsuda/cashpoint/internal/config"
)

// settableKeys are the config keys operators may change from the CLI.
var settableKeys = []string{
	"api.base_url",
	"api.timeout",
	"auth.username",
	"auth.password",
	"ledger.path",
	"audit.path",
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the persisted configuration",
	}

	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetCmd())

	return cmd
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config directory, default config file, and empty ledger",
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := config.Dir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			path := filepath.Join(dir, "config.yaml")
			if err := viper.SafeWriteConfigAs(path); err != nil {
				var exists viper.ConfigFileAlreadyExistsError
				if !errors.As(err, &exists) {
					return fmt.Errorf("failed to write config: %w", err)
				}
				fmt.Println(cli.FormatWarning(fmt.Sprintf("config already exists at %s", path)))
			} else {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("wrote default config to %s", path)))
			}

			l, err := openLedger()
			if err != nil {
				return err
			}
			if err := l.EnsureExists(); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("ledger ready at %s", l.Path())))

			return nil
		},
	}
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			var b strings.Builder
			for _, key := range settableKeys {
				b.WriteString(fmt.Sprintf("%-14s %v\n", key, viper.Get(key)))
			}
			if file := viper.ConfigFileUsed(); file != "" {
				b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf("loaded from %s", file)))
			} else {
				b.WriteString(cli.SubtleStyle.Render("using built-in defaults"))
			}

			fmt.Println(cli.RenderBox("Configuration", b.String()))
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value and persist it",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			known := false
			for _, k := range settableKeys {
				if k == key {
					known = true
					break
				}
			}
			if !known {
				return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(settableKeys, ", "))
			}

			viper.Set(key, value)

			if viper.ConfigFileUsed() == "" {
				dir, err := config.Dir()
				if err != nil {
					return fmt.Errorf("failed to get config directory: %w", err)
				}
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create config directory: %w", err)
				}
				if err := viper.WriteConfigAs(filepath.Join(dir, "config.yaml")); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
			} else if err := viper.WriteConfig(); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s updated", key)))
			return nil
		},
	}
}
