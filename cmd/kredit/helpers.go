package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/paww122/kredit-ledger/internal/config"
	"github.com/paww122/kredit-ledger/internal/crypto"
	"github.com/paww122/kredit-ledger/internal/storage"
)

// cachedPassphrase avoids prompting twice when one command opens both
// the store and the backup service.
var cachedPassphrase string

// readPassphrase obtains the ledger passphrase: from config or the
// KREDIT_PASSPHRASE environment variable when set, otherwise from an
// interactive terminal prompt.
func readPassphrase() (string, error) {
	if cachedPassphrase != "" {
		return cachedPassphrase, nil
	}
	if pass := viper.GetString("passphrase"); pass != "" {
		cachedPassphrase = pass
		return pass, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("passphrase required: set KREDIT_PASSPHRASE or run interactively")
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("passphrase must not be empty")
	}

	cachedPassphrase = string(raw)
	return cachedPassphrase, nil
}

// initStore opens the encrypted store with proper path expansion and
// runs migrations.
func initStore(ctx context.Context) (*storage.SQLiteStore, error) {
	passphrase, err := readPassphrase()
	if err != nil {
		return nil, err
	}

	cipher, err := crypto.NewCipher(crypto.DeriveKey(passphrase))
	if err != nil {
		return nil, err
	}

	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/kredit/kredit.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath, cipher)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// backupDir returns the configured snapshot directory.
func backupDir() string {
	dir := viper.GetString("backup.dir")
	if dir == "" {
		dir = "$HOME/.local/share/kredit/backups"
	}
	return config.ExpandPath(dir)
}

// backupInterval returns the automatic snapshot cadence.
func backupInterval() time.Duration {
	interval := viper.GetDuration("backup.interval")
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return interval
}

// storeCipher rebuilds the cipher used by the store so the backup
// service seals snapshots under the same key.
func storeCipher() (*crypto.Cipher, error) {
	passphrase, err := readPassphrase()
	if err != nil {
		return nil, err
	}
	return crypto.NewCipher(crypto.DeriveKey(passphrase))
}

// formatRupiah renders an amount with thousand separators, e.g.
// "Rp 1.234.567".
func formatRupiah(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, d)
	}

	if negative {
		return "Rp -" + string(out)
	}
	return "Rp " + string(out)
}

// parseID parses a positional numeric ID argument.
func parseID(arg, name string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, arg)
	}
	return id, nil
}
