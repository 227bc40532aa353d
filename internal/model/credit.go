package model

import "time"

// CreditStatus is the lifecycle state of a credit.
type CreditStatus string

// Credit lifecycle states. Only active credits appear in collection
// lists and accrue holiday due-date shifts.
const (
	CreditStatusActive    CreditStatus = "active"
	CreditStatusCompleted CreditStatus = "completed"
	CreditStatusCancelled CreditStatus = "cancelled"
)

// Valid reports whether s is a known credit status.
func (s CreditStatus) Valid() bool {
	switch s {
	case CreditStatusActive, CreditStatusCompleted, CreditStatusCancelled:
		return true
	}
	return false
}

// Credit represents a no-interest daily installment sold to a customer.
// Everything besides Status and EndDate is immutable after creation;
// EndDate moves only through the holiday shift rule.
type Credit struct {
	CreatedAt    time.Time
	StartDate    time.Time
	EndDate      time.Time
	ItemName     string
	CustomerName string // joined from customers, never stored on this row
	Notes        string
	Status       CreditStatus
	ID           int64
	CustomerID   int64
	TotalPrice   int64
	DailyAmount  int64
	TotalDays    int
}

// DailyInstallment computes the fixed per-day obligation for a credit:
// the minimal integer amount whose total over totalDays covers
// totalPrice. Rounding down would let the total collected fall short.
func DailyInstallment(totalPrice int64, totalDays int) int64 {
	return (totalPrice + int64(totalDays) - 1) / int64(totalDays)
}
