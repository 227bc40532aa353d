package model

import (
	"fmt"
	"time"
)

// Payment is a single deposit against a credit. Payments are
// append-only: a credit's live totals are always recomputed from the
// full payment history, never from a mutable counter.
type Payment struct {
	CreatedAt     time.Time
	PaymentDate   time.Time
	Notes         string
	ID            int64
	CreditID      int64
	Amount        int64
	DaysPaid      int
	RemainingDays int
}

// PaymentSummary is a pure aggregation over a credit's payment history
// combined with its stored daily amount and schedule length. It is
// derived on every read and never persisted.
type PaymentSummary struct {
	LastPaymentDate time.Time
	TotalDaysPaid   int
	RemainingDays   int
	TotalAmountPaid int64
	RemainingAmount int64
	PaymentCount    int
	IsCompleted     bool
}

// PaymentResult is what PostPayment hands back to the receipt layer.
type PaymentResult struct {
	PaymentDate   time.Time
	ReceiptNumber string
	CustomerName  string
	ItemName      string
	CreditID      int64
	PaymentID     int64
	Amount        int64
	DailyAmount   int64
	TotalPrice    int64
	TotalDays     int
	DaysPaid      int
	RemainingDays int
	Completed     bool
}

// NewReceiptNumber generates a receipt number of the form
// #YYYY-MM-DD-HHMMSS from the given timestamp.
func NewReceiptNumber(t time.Time) string {
	return fmt.Sprintf("#%s-%s", t.Format("2006-01-02"), t.Format("150405"))
}
