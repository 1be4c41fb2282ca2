package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ymatsuda/cashpoint/internal/cli"
	"github.com/ymatsuda/cashpoint/internal/session"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify the configured credentials against the device",
		Long: `Verify that the configured operator credentials are accepted by the
cash-dispensing device. Sessions are per-invocation: other commands log
in again themselves before performing gated operations.`,
		RunE: runLogin,
	}

	cmd.Flags().StringP("username", "u", "", "operator account (overrides config)")
	cmd.Flags().StringP("password", "p", "", "operator password (overrides config)")

	_ = viper.BindPFlag("auth.username", cmd.Flags().Lookup("username"))
	_ = viper.BindPFlag("auth.password", cmd.Flags().Lookup("password"))

	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	client, err := newDeviceClient()
	if err != nil {
		return err
	}

	gate := session.NewGate(client)
	if err := gate.Login(cmd.Context(), viper.GetString("auth.username"), viper.GetString("auth.password")); err != nil {
		fmt.Println(cli.FormatError("login failed"))
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("logged in as %s", viper.GetString("auth.username"))))
	return nil
}
