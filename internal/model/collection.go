package model

// DailyCollection is one row of the daily collection round: an active
// credit with its per-day obligation and whether a deposit was already
// taken today.
type DailyCollection struct {
	CustomerName  string
	ItemName      string
	CreditID      int64
	DailyAmount   int64
	PaidToday     bool
	TotalDaysPaid int
	RemainingDays int
}

// DashboardStats aggregates all active credits for the dashboard view.
type DashboardStats struct {
	TotalOutstanding int64
	DueToday         int
	PaidCount        int
	UnpaidCount      int
}
