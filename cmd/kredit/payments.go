package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paww122/kredit-ledger/internal/cli"
	"github.com/paww122/kredit-ledger/internal/ledger"
	"github.com/paww122/kredit-ledger/internal/model"
)

func payCmd() *cobra.Command {
	var amount int64
	var notes string

	cmd := &cobra.Command{
		Use:   "pay <credit-id>",
		Short: "Record a payment against a credit",
		Long: `Record a deposit against an active credit.

A deposit below the daily installment still settles one day. A deposit
of several installments settles that many days at once, capped at the
days still owed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			creditID, err := parseID(args[0], "credit ID")
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := ledger.NewEngine(store).PostPayment(ctx, creditID, amount, notes)
			if err != nil {
				return err
			}

			printReceipt(result)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&amount, "amount", "a", 0, "Deposit amount (required)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func printReceipt(r *model.PaymentResult) {
	fmt.Println(cli.FormatTitle("Receipt " + r.ReceiptNumber))
	fmt.Printf("Date:      %s\n", r.PaymentDate.Format("2006-01-02"))
	fmt.Printf("Customer:  %s\n", r.CustomerName)
	fmt.Printf("Item:      %s (credit #%d)\n", r.ItemName, r.CreditID)
	fmt.Printf("Deposit:   %s for %d day(s) at %s/day\n",
		formatRupiah(r.Amount), r.DaysPaid, formatRupiah(r.DailyAmount))
	fmt.Printf("Remaining: %d of %d days\n", r.RemainingDays, r.TotalDays)

	if r.Completed {
		fmt.Println(cli.FormatSuccess("Credit fully paid, marked completed"))
	}
}
