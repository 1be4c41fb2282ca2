package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ymatsuda/cashpoint/internal/cli"
	"github.com/ymatsuda/cashpoint/internal/common"
	"github.com/ymatsuda/cashpoint/internal/engine"
)

func withdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Submit a withdrawal to the device",
		Long: `Submit a withdrawal request and record it in the ledger as Pending.

The device answers asynchronously: run "cashpoint reconcile" afterwards to
resolve the final status.`,
		RunE: runWithdraw,
	}

	cmd.Flags().StringP("operator", "o", "", "name of the operator handling the withdrawal")
	cmd.Flags().StringP("payee", "p", "", "who the cash is paid to")
	cmd.Flags().StringP("category", "c", "other", "account category for bookkeeping")
	cmd.Flags().StringP("amount", "a", "", "amount to withdraw (whole units)")

	_ = cmd.MarkFlagRequired("operator")
	_ = cmd.MarkFlagRequired("payee")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	client, err := newDeviceClient()
	if err != nil {
		return err
	}

	gate, err := authenticate(ctx, client)
	if err != nil {
		return err
	}
	if !gate.IsAuthenticated() {
		return common.ErrNotAuthenticated
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

	operator, _ := cmd.Flags().GetString("operator")
	payee, _ := cmd.Flags().GetString("payee")
	category, _ := cmd.Flags().GetString("category")
	amount, _ := cmd.Flags().GetString("amount")

	eng := engine.New(client, l, engine.WithAuditLog(audit))
	record, err := eng.SubmitWithdrawal(ctx, engine.SubmitRequest{
		Operator:        operator,
		Payee:           payee,
		AccountCategory: category,
		Amount:          amount,
	})
	if err != nil {
		if common.IsValidation(err) {
			fmt.Println(cli.FormatWarning(err.Error()))
			return err
		}
		fmt.Println(cli.FormatError("withdrawal failed"))
		return err
	}

	content := fmt.Sprintf("Transaction ID: %s\nOperator:       %s\nPayee:          %s\nCategory:       %s\nAmount:         %d\nStatus:         %s",
		record.TransactionID,
		record.Operator,
		record.Payee,
		record.AccountCategory,
		record.Amount,
		cli.StyleStatus(record.Status))
	fmt.Println(cli.RenderBox("Withdrawal Submitted", content))
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("recorded in %s", l.Path())))

	return nil
}
