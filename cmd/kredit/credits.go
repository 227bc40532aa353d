package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paww122/kredit-ledger/internal/cli"
	"github.com/paww122/kredit-ledger/internal/ledger"
	"github.com/paww122/kredit-ledger/internal/model"
)

func creditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Manage daily installment credits",
	}

	cmd.AddCommand(addCreditCmd())
	cmd.AddCommand(listCreditsCmd())
	cmd.AddCommand(showCreditCmd())
	cmd.AddCommand(cancelCreditCmd())

	return cmd
}

func addCreditCmd() *cobra.Command {
	var customerID, totalPrice int64
	var totalDays int
	var notes string

	cmd := &cobra.Command{
		Use:   "add <item>",
		Short: "Open a new credit",
		Long: `Open a new daily installment credit for a customer.

The daily installment is the total price divided by the schedule length,
rounded up so the full price is always covered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			credit, err := ledger.NewEngine(store).CreateCredit(ctx, customerID, args[0], totalPrice, totalDays, notes)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Opened credit #%d for %s", credit.ID, credit.CustomerName)))
			fmt.Printf("  Item:  %s at %s\n", credit.ItemName, formatRupiah(credit.TotalPrice))
			fmt.Printf("  Daily: %s over %d days, due %s\n",
				formatRupiah(credit.DailyAmount), credit.TotalDays, credit.EndDate.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&customerID, "customer", "c", 0, "Customer ID (required)")
	cmd.Flags().Int64VarP(&totalPrice, "price", "p", 0, "Total price (required)")
	cmd.Flags().IntVarP(&totalDays, "days", "d", 0, "Schedule length in days (required)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("days")

	return cmd
}

func listCreditsCmd() *cobra.Command {
	var customerID int64
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List credits with payment progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			creditStatus := model.CreditStatus(status)
			if !creditStatus.Valid() {
				return fmt.Errorf("invalid status %q (active, completed, cancelled)", status)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			overviews, err := ledger.NewEngine(store).ListCredits(ctx, customerID, creditStatus)
			if err != nil {
				return err
			}

			if len(overviews) == 0 {
				fmt.Println(cli.FormatInfo(fmt.Sprintf("No %s credits", status)))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCUSTOMER\tITEM\tDAILY\tPAID\tREMAINING\tDUE")
			for _, o := range overviews {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					o.Credit.ID, o.Credit.CustomerName, o.Credit.ItemName,
					formatRupiah(o.Credit.DailyAmount),
					o.Summary.TotalDaysPaid, o.Credit.TotalDays,
					formatRupiah(o.Summary.RemainingAmount),
					o.Credit.EndDate.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64VarP(&customerID, "customer", "c", 0, "Restrict to one customer")
	cmd.Flags().StringVarP(&status, "status", "s", "active", "Credit status (active, completed, cancelled)")

	return cmd
}

func showCreditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a credit with its payment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "credit ID")
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := ledger.NewEngine(store)
			credit, err := engine.GetCredit(ctx, id)
			if err != nil {
				return err
			}
			summary, err := engine.GetPaymentSummary(ctx, id)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Credit #%d: %s (%s)", credit.ID, credit.ItemName, credit.CustomerName)))
			fmt.Printf("Status:    %s\n", credit.Status)
			fmt.Printf("Price:     %s over %d days (%s/day)\n",
				formatRupiah(credit.TotalPrice), credit.TotalDays, formatRupiah(credit.DailyAmount))
			fmt.Printf("Schedule:  %s to %s\n",
				credit.StartDate.Format("2006-01-02"), credit.EndDate.Format("2006-01-02"))
			fmt.Printf("Paid:      %s (%d days, %d payments)\n",
				formatRupiah(summary.TotalAmountPaid), summary.TotalDaysPaid, summary.PaymentCount)
			fmt.Printf("Remaining: %s (%d days)\n",
				formatRupiah(summary.RemainingAmount), summary.RemainingDays)

			payments, err := engine.ListPayments(ctx, id)
			if err != nil {
				return err
			}
			if len(payments) == 0 {
				return nil
			}

			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tAMOUNT\tDAYS\tREMAINING")
			for _, p := range payments {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
					p.PaymentDate.Format("2006-01-02"), formatRupiah(p.Amount), p.DaysPaid, p.RemainingDays)
			}
			return w.Flush()
		},
	}
}

func cancelCreditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an active credit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "credit ID")
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := ledger.NewEngine(store).CancelCredit(ctx, id); err != nil {
				return err
			}

			fmt.Println(cli.FormatWarning(fmt.Sprintf("Cancelled credit #%d", id)))
			return nil
		},
	}
}
