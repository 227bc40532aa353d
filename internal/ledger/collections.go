package ledger

import (
	"context"

	"github.com/paww122/kredit-ledger/internal/model"
)

// GetTodayCollections builds the daily collection round: every active
// credit with days still owed, flagged with whether a deposit was
// already taken today.
func (e *Engine) GetTodayCollections(ctx context.Context) ([]model.DailyCollection, error) {
	credits, err := e.store.ListCredits(ctx, 0, model.CreditStatusActive)
	if err != nil {
		return nil, err
	}

	today := e.Today()
	collections := make([]model.DailyCollection, 0, len(credits))
	for _, credit := range credits {
		stats, err := e.store.GetPaymentStats(ctx, credit.ID)
		if err != nil {
			return nil, err
		}

		remaining := credit.TotalDays - stats.TotalDaysPaid
		if remaining <= 0 {
			continue
		}

		paidToday, err := e.store.HasPaymentOn(ctx, credit.ID, today)
		if err != nil {
			return nil, err
		}

		collections = append(collections, model.DailyCollection{
			CustomerName:  credit.CustomerName,
			ItemName:      credit.ItemName,
			CreditID:      credit.ID,
			DailyAmount:   credit.DailyAmount,
			PaidToday:     paidToday,
			TotalDaysPaid: stats.TotalDaysPaid,
			RemainingDays: remaining,
		})
	}

	return collections, nil
}

// GetDashboardStats aggregates the active book: outstanding principal,
// credits due today, and how many of them already paid.
func (e *Engine) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	credits, err := e.store.ListCredits(ctx, 0, model.CreditStatusActive)
	if err != nil {
		return nil, err
	}

	today := e.Today()
	stats := &model.DashboardStats{}
	for _, credit := range credits {
		paymentStats, err := e.store.GetPaymentStats(ctx, credit.ID)
		if err != nil {
			return nil, err
		}

		outstanding := credit.TotalPrice - paymentStats.TotalAmountPaid
		if outstanding > 0 {
			stats.TotalOutstanding += outstanding
		}

		if credit.TotalDays-paymentStats.TotalDaysPaid <= 0 {
			continue
		}
		stats.DueToday++

		paidToday, err := e.store.HasPaymentOn(ctx, credit.ID, today)
		if err != nil {
			return nil, err
		}
		if paidToday {
			stats.PaidCount++
		} else {
			stats.UnpaidCount++
		}
	}

	return stats, nil
}
