// Package storage provides the encrypted persistence layer for the kredit ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paww122/kredit-ledger/internal/common"
	"github.com/paww122/kredit-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCustomer validates a customer before insertion.
func validateCustomer(customer *model.Customer) error {
	if customer == nil {
		return fmt.Errorf("%w: customer", ErrNilParameter)
	}
	if strings.TrimSpace(customer.Name) == "" {
		return fmt.Errorf("%w: customer name is required", common.ErrInvalidInput)
	}
	if customer.CreditLimit < 0 {
		return fmt.Errorf("%w: credit limit cannot be negative", common.ErrInvalidInput)
	}
	return nil
}

// validateCredit validates a credit before insertion.
func validateCredit(credit *model.Credit) error {
	if credit == nil {
		return fmt.Errorf("%w: credit", ErrNilParameter)
	}
	if credit.CustomerID <= 0 {
		return fmt.Errorf("%w: missing customer id", common.ErrInvalidInput)
	}
	if strings.TrimSpace(credit.ItemName) == "" {
		return fmt.Errorf("%w: item name is required", common.ErrInvalidInput)
	}
	if credit.TotalPrice <= 0 {
		return fmt.Errorf("%w: total price must be positive", common.ErrInvalidInput)
	}
	if credit.TotalDays <= 0 {
		return fmt.Errorf("%w: total days must be positive", common.ErrInvalidInput)
	}
	if !credit.Status.Valid() {
		return fmt.Errorf("%w: invalid status %q", common.ErrInvalidInput, credit.Status)
	}
	return nil
}

// validatePayment validates a payment before insertion.
func validatePayment(payment *model.Payment) error {
	if payment == nil {
		return fmt.Errorf("%w: payment", ErrNilParameter)
	}
	if payment.CreditID <= 0 {
		return fmt.Errorf("%w: missing credit id", common.ErrInvalidInput)
	}
	if payment.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", common.ErrInvalidInput)
	}
	if payment.DaysPaid < 1 {
		return fmt.Errorf("%w: days paid must be at least 1", common.ErrInvalidInput)
	}
	if payment.RemainingDays < 0 {
		return fmt.Errorf("%w: remaining days cannot be negative", common.ErrInvalidInput)
	}
	if payment.PaymentDate.IsZero() {
		return fmt.Errorf("%w: missing payment date", common.ErrInvalidInput)
	}
	return nil
}
