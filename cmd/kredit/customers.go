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

func customersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Manage customers",
	}

	cmd.AddCommand(addCustomerCmd())
	cmd.AddCommand(listCustomersCmd())
	cmd.AddCommand(showCustomerCmd())

	return cmd
}

func addCustomerCmd() *cobra.Command {
	var address, phone, notes string
	var creditLimit int64

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			customer := &model.Customer{
				Name:        args[0],
				Address:     address,
				Phone:       phone,
				Notes:       notes,
				CreditLimit: creditLimit,
			}
			if err := ledger.NewEngine(store).CreateCustomer(ctx, customer); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Registered customer #%d %s", customer.ID, customer.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Customer address")
	cmd.Flags().StringVarP(&phone, "phone", "p", "", "Customer phone number")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes")
	cmd.Flags().Int64VarP(&creditLimit, "limit", "l", 0, "Credit limit (0 for none)")

	return cmd
}

func listCustomersCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			customers, err := ledger.NewEngine(store).ListCustomers(ctx, search)
			if err != nil {
				return err
			}

			if len(customers) == 0 {
				fmt.Println(cli.FormatInfo("No customers found"))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPHONE\tADDRESS\tLIMIT")
			for _, c := range customers {
				limit := "-"
				if c.CreditLimit > 0 {
					limit = formatRupiah(c.CreditLimit)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Address, limit)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name or phone substring")

	return cmd
}

func showCustomerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a customer and their credits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "customer ID")
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := ledger.NewEngine(store)
			customer, err := engine.GetCustomer(ctx, id)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("#%d %s", customer.ID, customer.Name)))
			if customer.Phone != "" {
				fmt.Printf("Phone:   %s\n", customer.Phone)
			}
			if customer.Address != "" {
				fmt.Printf("Address: %s\n", customer.Address)
			}
			if customer.Notes != "" {
				fmt.Printf("Notes:   %s\n", customer.Notes)
			}

			overviews, err := engine.ListCredits(ctx, id, model.CreditStatusActive)
			if err != nil {
				return err
			}
			if len(overviews) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No active credits"))
				return nil
			}

			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREDIT\tITEM\tDAILY\tPAID\tREMAINING\tDUE")
			for _, o := range overviews {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\t%s\t%s\n",
					o.Credit.ID, o.Credit.ItemName, formatRupiah(o.Credit.DailyAmount),
					o.Summary.TotalDaysPaid, o.Credit.TotalDays,
					formatRupiah(o.Summary.RemainingAmount),
					o.Credit.EndDate.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}
