package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ymatsuda/cashpoint/internal/cli"
)

func deviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect the cash-dispensing device",
	}

	cmd.AddCommand(deviceGetterCmd("status", "Show the device system status",
		func(ctx context.Context, c deviceGetter) (json.RawMessage, error) { return c.SystemStatus(ctx) }))
	cmd.AddCommand(deviceGetterCmd("machine", "Show static machine information",
		func(ctx context.Context, c deviceGetter) (json.RawMessage, error) { return c.MachineInfo(ctx) }))
	cmd.AddCommand(deviceGetterCmd("cash", "Show the cash inventory",
		func(ctx context.Context, c deviceGetter) (json.RawMessage, error) { return c.CashInfo(ctx) }))
	cmd.AddCommand(deviceGetterCmd("sensors", "Show sensor readings",
		func(ctx context.Context, c deviceGetter) (json.RawMessage, error) { return c.SensorStatus(ctx) }))
	cmd.AddCommand(deviceErrorMessageCmd())

	return cmd
}

// deviceGetter is the read-only surface shared by the inspection commands.
type deviceGetter interface {
	SystemStatus(ctx context.Context) (json.RawMessage, error)
	MachineInfo(ctx context.Context) (json.RawMessage, error)
	CashInfo(ctx context.Context) (json.RawMessage, error)
	SensorStatus(ctx context.Context) (json.RawMessage, error)
}

func deviceGetterCmd(use, short string, fetch func(context.Context, deviceGetter) (json.RawMessage, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := newDeviceClient()
			if err != nil {
				return err
			}
			if _, err := authenticate(ctx, client); err != nil {
				return err
			}

			data, err := fetch(ctx, client)
			if err != nil {
				return err
			}

			printPayload(use, data)
			return nil
		},
	}
}

func deviceErrorMessageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "error-message <code>",
		Short: "Resolve a device error code to its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := newDeviceClient()
			if err != nil {
				return err
			}
			if _, err := authenticate(ctx, client); err != nil {
				return err
			}

			data, err := client.ErrorMessage(ctx, args[0])
			if err != nil {
				return err
			}

			printPayload("error-message", data)
			return nil
		},
	}
}

func printPayload(title string, data json.RawMessage) {
	if len(data) == 0 {
		fmt.Println(cli.FormatWarning("device returned an empty payload"))
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(cli.RenderBox(title, pretty.String()))
}
