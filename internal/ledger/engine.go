// Package ledger implements the business rules of the kredit book:
// credit creation, payment allocation, holiday shifts and the daily
// collection round. Every multi-step write runs in one store
// transaction.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/paww122/kredit-ledger/internal/common"
	"github.com/paww122/kredit-ledger/internal/model"
	"github.com/paww122/kredit-ledger/internal/service"
)

// Engine coordinates all ledger operations on top of the store.
type Engine struct {
	store service.Store
	now   func() time.Time
}

// NewEngine creates a ledger engine backed by the given store.
func NewEngine(store service.Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
	}
}

// dateOnly truncates a timestamp to its calendar day in UTC, the
// granularity at which the ledger operates.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current ledger date.
func (e *Engine) Today() time.Time {
	return dateOnly(e.now())
}

// CreateCustomer registers a new customer.
func (e *Engine) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	return e.store.CreateCustomer(ctx, customer)
}

// GetCustomer returns a customer by ID.
func (e *Engine) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return e.store.GetCustomer(ctx, id)
}

// ListCustomers returns customers, optionally filtered by a name or
// phone substring.
func (e *Engine) ListCustomers(ctx context.Context, search string) ([]model.Customer, error) {
	return e.store.ListCustomers(ctx, search)
}

// CreateCredit opens a new daily credit for a customer. The daily
// installment is derived from the price and schedule length, and the
// schedule starts today.
func (e *Engine) CreateCredit(ctx context.Context, customerID int64, itemName string, totalPrice int64, totalDays int, notes string) (*model.Credit, error) {
	if totalPrice <= 0 {
		return nil, fmt.Errorf("%w: total price must be positive", common.ErrInvalidInput)
	}
	if totalDays <= 0 {
		return nil, fmt.Errorf("%w: total days must be positive", common.ErrInvalidInput)
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	customer, err := tx.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	start := e.Today()
	credit := &model.Credit{
		CustomerID:   customerID,
		CustomerName: customer.Name,
		ItemName:     itemName,
		Notes:        notes,
		TotalPrice:   totalPrice,
		DailyAmount:  model.DailyInstallment(totalPrice, totalDays),
		TotalDays:    totalDays,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, totalDays),
		Status:       model.CreditStatusActive,
	}

	if err := tx.CreateCredit(ctx, credit); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credit creation: %w", err)
	}

	return credit, nil
}

// GetCredit returns a credit by ID.
func (e *Engine) GetCredit(ctx context.Context, id int64) (*model.Credit, error) {
	return e.store.GetCredit(ctx, id)
}

// CreditOverview pairs a credit with its derived payment summary.
type CreditOverview struct {
	Summary model.PaymentSummary
	Credit  model.Credit
}

// ListCredits returns credits with the given status (optionally for
// one customer), each with its payment summary.
func (e *Engine) ListCredits(ctx context.Context, customerID int64, status model.CreditStatus) ([]CreditOverview, error) {
	credits, err := e.store.ListCredits(ctx, customerID, status)
	if err != nil {
		return nil, err
	}

	overviews := make([]CreditOverview, 0, len(credits))
	for _, credit := range credits {
		stats, err := e.store.GetPaymentStats(ctx, credit.ID)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, CreditOverview{
			Credit:  credit,
			Summary: summarize(&credit, stats),
		})
	}

	return overviews, nil
}

// CancelCredit marks an active credit cancelled. Payments already made
// stay on record.
func (e *Engine) CancelCredit(ctx context.Context, id int64) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	credit, err := tx.GetCredit(ctx, id)
	if err != nil {
		return err
	}
	if credit.Status != model.CreditStatusActive {
		return fmt.Errorf("%w: credit %d is %s, only active credits can be cancelled",
			common.ErrInvalidInput, id, credit.Status)
	}

	if err := tx.UpdateCreditStatus(ctx, id, model.CreditStatusCancelled); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credit cancellation: %w", err)
	}
	return nil
}
