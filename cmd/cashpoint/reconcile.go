package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ymatsuda/cashpoint/internal/cli"
	"github.com/ymatsuda/cashpoint/internal/engine"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Resolve pending transactions by polling the device",
		Long: `Query the device for every non-terminal ledger record and apply the
final status where the device reports one. Unreachable records stay
Pending and are retried on the next run.`,
		RunE: runReconcile,
	}

	cmd.Flags().IntP("limit", "n", 10, "number of recent transactions to display afterwards")

	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	client, err := newDeviceClient()
	if err != nil {
		return err
	}

	l, err := openLedger()
	if err != nil {
		return err
	}

	audit, err := openAuditStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = audit.Close() }()

	var bar *progressbar.ProgressBar
	eng := engine.New(client, l,
		engine.WithAuditLog(audit),
		engine.WithProgress(func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Reconciling pending transactions..."),
				)
			}
			_ = bar.Set(done)
		}),
	)

	result, err := eng.ReconcilePending(ctx)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	switch {
	case result.Updated > 0:
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d transaction(s) resolved", result.Updated)))
	default:
		fmt.Println(cli.FormatTitle("no transactions changed"))
	}
	if result.QueryFailures > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d record(s) could not be queried and stay pending", result.QueryFailures)))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	records := result.Records
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	fmt.Println(cli.RenderTransactionTable(records))

	return nil
}
