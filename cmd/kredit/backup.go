package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paww122/kredit-ledger/internal/backup"
	"github.com/paww122/kredit-ledger/internal/cli"
	"github.com/paww122/kredit-ledger/internal/model"
	"github.com/paww122/kredit-ledger/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage encrypted snapshots",
		Long: `Create, list, and restore encrypted snapshots of the ledger.

Snapshots are sealed with the same passphrase-derived key as the
database; restoring one replaces every ledger table with its contents.`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(restoreBackupCmd())
	cmd.AddCommand(backupStatusCmd())
	cmd.AddCommand(backupWatchCmd())

	return cmd
}

func initBackupService(store *storage.SQLiteStore) (*backup.Service, error) {
	cipher, err := storeCipher()
	if err != nil {
		return nil, err
	}
	return backup.NewService(store, cipher, backupDir(), backupInterval())
}

func createBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a snapshot now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, err := initBackupService(store)
			if err != nil {
				return err
			}

			path, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Created snapshot " + path))
			return nil
		},
	}
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, err := initBackupService(store)
			if err != nil {
				return err
			}

			snapshots, err := svc.ListSnapshots()
			if err != nil {
				return err
			}

			if len(snapshots) == 0 {
				fmt.Println(cli.FormatInfo("No snapshots yet"))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tWRITTEN\tSIZE")
			for _, s := range snapshots {
				fmt.Fprintf(w, "%s\t%s\t%d bytes\n",
					s.Path, s.ModTime.Format("2006-01-02 15:04:05"), s.Size)
			}
			return w.Flush()
		},
	}
}

func restoreBackupCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <path>",
		Short: "Restore the ledger from a snapshot",
		Long: `Replace every ledger table with the snapshot's contents.

The backup activity log is kept as-is, so the restore itself stays on
record. This cannot be undone; take a fresh snapshot first if in doubt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !yes {
				return fmt.Errorf("restore replaces all ledger data; re-run with --yes to confirm")
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, err := initBackupService(store)
			if err != nil {
				return err
			}

			if err := svc.RestoreSnapshot(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Restored ledger from " + args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the restore")

	return cmd
}

func backupStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show snapshot status and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, err := initBackupService(store)
			if err != nil {
				return err
			}

			status, err := svc.Status()
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Backup status"))
			fmt.Printf("Directory:         %s\n", status.Dir)
			fmt.Printf("Snapshots on disk: %d\n", status.SnapshotCount)

			last, err := store.LastBackupRecord(ctx)
			if err != nil {
				return err
			}
			if last == nil {
				fmt.Println(cli.SubtleStyle.Render("No backup activity recorded"))
				return nil
			}

			records, err := store.ListBackupLog(ctx, 10)
			if err != nil {
				return err
			}

			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tTYPE\tSTATUS\tPATH")
			for _, r := range records {
				status := cli.SuccessStyle.Render(r.Status)
				if r.Status == model.BackupStatusFailed {
					status = cli.ErrorStyle.Render(r.Status)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Type, status, r.Path)
			}
			return w.Flush()
		},
	}
}

func backupWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run automatic snapshots until interrupted",
		Long: `Keep taking snapshots at the configured interval until interrupted.

On shutdown a final snapshot is written before the command exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, err := initBackupService(store)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatInfo(fmt.Sprintf("Taking snapshots every %s into %s (Ctrl-C to stop)",
				backupInterval(), backupDir())))

			return svc.Run(ctx)
		},
	}
}
