package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paww122/kredit-ledger/internal/common"
	"github.com/paww122/kredit-ledger/internal/model"
)

// CreateCustomer inserts a new customer and assigns its ID.
func (s *SQLiteStore) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCustomer(customer); err != nil {
		return err
	}
	return s.createCustomerTx(ctx, s.db, customer)
}

func (s *SQLiteStore) createCustomerTx(ctx context.Context, q queryable, customer *model.Customer) error {
	sealed, err := s.seal(sealedCustomerData{
		Address: customer.Address,
		Phone:   customer.Phone,
		Notes:   customer.Notes,
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO customers (name, address, phone, credit_limit, created_at, data_encrypted)
		VALUES (?, ?, ?, ?, ?, ?)`,
		customer.Name, customer.Address, customer.Phone, customer.CreditLimit, now, sealed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get customer ID: %w", err)
	}

	customer.ID = id
	customer.CreatedAt = now

	slog.Info("created customer", "id", id, "name", customer.Name)
	return nil
}

// GetCustomer returns a customer by ID.
func (s *SQLiteStore) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCustomerTx(ctx, s.db, id)
}

func (s *SQLiteStore) getCustomerTx(ctx context.Context, q queryable, id int64) (*model.Customer, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, address, phone, credit_limit, created_at, data_encrypted
		FROM customers
		WHERE id = ?`, id)

	customer, err := s.scanCustomer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: customer %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}

	return customer, nil
}

// ListCustomers returns customers ordered by name, optionally filtered
// by a name or phone substring.
func (s *SQLiteStore) ListCustomers(ctx context.Context, search string) ([]model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listCustomersTx(ctx, s.db, search)
}

func (s *SQLiteStore) listCustomersTx(ctx context.Context, q queryable, search string) ([]model.Customer, error) {
	query := `
		SELECT id, name, address, phone, credit_limit, created_at, data_encrypted
		FROM customers`
	args := []any{}

	if search != "" {
		query += ` WHERE name LIKE ? OR phone LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var customers []model.Customer
	for rows.Next() {
		customer, err := s.scanCustomer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

func (s *SQLiteStore) scanCustomer(scan func(...any) error) (*model.Customer, error) {
	var customer model.Customer
	var sealed string

	if err := scan(
		&customer.ID, &customer.Name, &customer.Address, &customer.Phone,
		&customer.CreditLimit, &customer.CreatedAt, &sealed,
	); err != nil {
		return nil, err
	}

	// Notes live only in the sealed blob; a decrypt failure leaves them
	// empty while the structured columns stay intact.
	var data sealedCustomerData
	s.openSealed(sealed, &data)
	customer.Notes = data.Notes

	return &customer, nil
}
