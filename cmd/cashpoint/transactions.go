package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ymatsuda/cashpoint/internal/cli"
	"github.com/ymatsuda/cashpoint/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Show recent transactions from the ledger",
		RunE:    runTransactions,
	}

	cmd.Flags().IntP("limit", "n", 10, "number of transactions to show (0 for all)")
	cmd.Flags().Bool("pending", false, "show only non-terminal transactions")

	return cmd
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}

	records, err := l.Scan()
	if err != nil {
		return err
	}

	pendingOnly, _ := cmd.Flags().GetBool("pending")
	if pendingOnly {
		filtered := make([]model.TransactionRecord, 0, len(records))
		for _, r := range records {
			if !r.Status.Terminal() {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	// Newest first, like the original dashboard.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	limit, _ := cmd.Flags().GetInt("limit")
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	fmt.Println(cli.RenderTransactionTable(records))
	return nil
}
