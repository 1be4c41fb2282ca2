package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ymatsuda/cashpoint/internal/cli"
	"github.com/ymatsuda/cashpoint/internal/model"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the local audit log",
		Long: `Show recorded submissions and status transitions from the local audit
log. The audit log is observability only; the ledger stays the source of
truth for transaction state.`,
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", 20, "number of events to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	audit, err := openAuditStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = audit.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	events, err := audit.ListEvents(ctx, limit)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no audit events recorded"))
		return nil
	}

	var b strings.Builder
	for _, event := range events {
		b.WriteString(fmt.Sprintf("%s  %-36s  %s\n",
			event.CreatedAt.Format("2006-01-02 15:04:05"),
			event.TransactionID,
			describeEvent(event)))
	}
	fmt.Println(cli.RenderBox("Audit History", strings.TrimRight(b.String(), "\n")))

	return nil
}

func describeEvent(event model.AuditEvent) string {
	switch event.Event {
	case model.AuditSubmitted:
		return fmt.Sprintf("submitted as %s (%s)", cli.StyleStatus(event.ToStatus), event.Detail)
	case model.AuditTransitioned:
		return fmt.Sprintf("%s → %s (device: %q)",
			cli.StyleStatus(event.FromStatus), cli.StyleStatus(event.ToStatus), event.Detail)
	default:
		return string(event.Event)
	}
}
