package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paww122/kredit-ledger/internal/cli"
	"github.com/paww122/kredit-ledger/internal/ledger"
)

func holidayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holiday",
		Short: "Manage holidays",
		Long: `Declare dates on which no collection happens.

Declaring a holiday pushes every active credit's due date out by one
day. Each date can only be declared once; repeating a date changes
nothing.`,
	}

	cmd.AddCommand(markHolidayCmd())
	cmd.AddCommand(listHolidaysCmd())

	return cmd
}

func markHolidayCmd() *cobra.Command {
	var dateArg string

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Declare a holiday",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := ledger.NewEngine(store)

			date := engine.Today()
			if dateArg != "" {
				if date, err = time.Parse("2006-01-02", dateArg); err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateArg)
				}
			}

			created, shifted, err := engine.MarkHoliday(ctx, date)
			if err != nil {
				return err
			}
			if !created {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("%s is already a holiday", date.Format("2006-01-02"))))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Declared %s a holiday, shifted %d active credits by one day",
				date.Format("2006-01-02"), shifted)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateArg, "date", "d", "", "Holiday date (default today)")

	return cmd
}

func listHolidaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared holidays",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			holidays, err := ledger.NewEngine(store).ListHolidays(ctx)
			if err != nil {
				return err
			}

			if len(holidays) == 0 {
				fmt.Println(cli.FormatInfo("No holidays declared"))
				return nil
			}

			for _, h := range holidays {
				fmt.Println(h.Date.Format("2006-01-02"))
			}
			return nil
		},
	}
}
