package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paww122/kredit-ledger/internal/cli"
	"github.com/paww122/kredit-ledger/internal/ledger"
)

func collectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "Show today's collection round",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := ledger.NewEngine(store)
			collections, err := engine.GetTodayCollections(ctx)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Collections for " + engine.Today().Format("2006-01-02")))
			if len(collections) == 0 {
				fmt.Println(cli.FormatInfo("Nothing to collect today"))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREDIT\tCUSTOMER\tITEM\tDAILY\tPROGRESS\tSTATUS")
			for _, c := range collections {
				status := cli.WarningStyle.Render("unpaid")
				if c.PaidToday {
					status = cli.SuccessStyle.Render("paid")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d days left\t%s\n",
					c.CreditID, c.CustomerName, c.ItemName,
					formatRupiah(c.DailyAmount), c.RemainingDays, status)
			}
			return w.Flush()
		},
	}
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the active book at a glance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := ledger.NewEngine(store).GetDashboardStats(ctx)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Dashboard"))
			fmt.Printf("Outstanding:   %s\n", cli.BoldStyle.Render(formatRupiah(stats.TotalOutstanding)))
			fmt.Printf("Due today:     %d credits\n", stats.DueToday)
			fmt.Printf("Paid today:    %s\n", cli.SuccessStyle.Render(fmt.Sprintf("%d", stats.PaidCount)))
			fmt.Printf("Still unpaid:  %s\n", cli.WarningStyle.Render(fmt.Sprintf("%d", stats.UnpaidCount)))
			return nil
		},
	}
}
