package ledger

import (
	"context"
	"fmt"

	"github.com/paww122/kredit-ledger/internal/common"
	"github.com/paww122/kredit-ledger/internal/model"
	"github.com/paww122/kredit-ledger/internal/service"
)

// PostPayment records a deposit against an active credit and allocates
// it to installment days:
//
//   - below the daily amount, the deposit still settles exactly one day
//   - at or above it, it settles amount/daily days, capped at the days
//     still owed, with any excess absorbed
//
// When the allocation clears the last owed day the credit is completed
// in the same transaction.
func (e *Engine) PostPayment(ctx context.Context, creditID int64, amount int64, notes string) (*model.PaymentResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", common.ErrInvalidInput)
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	credit, err := tx.GetCredit(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if credit.Status != model.CreditStatusActive {
		return nil, fmt.Errorf("%w: credit %d is %s, payments require an active credit",
			common.ErrInvalidInput, creditID, credit.Status)
	}

	stats, err := tx.GetPaymentStats(ctx, creditID)
	if err != nil {
		return nil, err
	}

	owed := credit.TotalDays - stats.TotalDaysPaid
	if owed <= 0 {
		return nil, fmt.Errorf("%w: credit %d has no days left to pay", common.ErrInvalidInput, creditID)
	}

	daysPaid := allocateDays(amount, credit.DailyAmount, owed)
	remaining := owed - daysPaid

	now := e.now()
	payment := &model.Payment{
		CreditID:      creditID,
		Amount:        amount,
		PaymentDate:   dateOnly(now),
		DaysPaid:      daysPaid,
		RemainingDays: remaining,
		Notes:         notes,
	}
	if err := tx.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	completed := remaining == 0
	if completed {
		if err := tx.UpdateCreditStatus(ctx, creditID, model.CreditStatusCompleted); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return &model.PaymentResult{
		PaymentDate:   payment.PaymentDate,
		ReceiptNumber: model.NewReceiptNumber(now),
		CustomerName:  credit.CustomerName,
		ItemName:      credit.ItemName,
		CreditID:      creditID,
		PaymentID:     payment.ID,
		Amount:        amount,
		DailyAmount:   credit.DailyAmount,
		TotalPrice:    credit.TotalPrice,
		TotalDays:     credit.TotalDays,
		DaysPaid:      daysPaid,
		RemainingDays: remaining,
		Completed:     completed,
	}, nil
}

// allocateDays maps a deposit amount to settled installment days.
func allocateDays(amount, daily int64, owed int) int {
	if amount < daily {
		return 1
	}
	days := int(amount / daily)
	if days > owed {
		return owed
	}
	return days
}

// GetPaymentSummary derives a credit's live position from its full
// payment history.
func (e *Engine) GetPaymentSummary(ctx context.Context, creditID int64) (*model.PaymentSummary, error) {
	credit, err := e.store.GetCredit(ctx, creditID)
	if err != nil {
		return nil, err
	}

	stats, err := e.store.GetPaymentStats(ctx, creditID)
	if err != nil {
		return nil, err
	}

	summary := summarize(credit, stats)
	return &summary, nil
}

// ListPayments returns a credit's payment history in posting order.
func (e *Engine) ListPayments(ctx context.Context, creditID int64) ([]model.Payment, error) {
	return e.store.ListPayments(ctx, creditID)
}

func summarize(credit *model.Credit, stats *service.PaymentStats) model.PaymentSummary {
	remainingDays := credit.TotalDays - stats.TotalDaysPaid
	if remainingDays < 0 {
		remainingDays = 0
	}
	remainingAmount := credit.TotalPrice - stats.TotalAmountPaid
	if remainingAmount < 0 {
		remainingAmount = 0
	}

	return model.PaymentSummary{
		LastPaymentDate: stats.LastPaymentDate,
		TotalDaysPaid:   stats.TotalDaysPaid,
		RemainingDays:   remainingDays,
		TotalAmountPaid: stats.TotalAmountPaid,
		RemainingAmount: remainingAmount,
		PaymentCount:    stats.PaymentCount,
		IsCompleted:     remainingDays == 0 || credit.Status == model.CreditStatusCompleted,
	}
}
