package model

import "time"

// Holiday is a declared date on which no collection happens. Declaring
// one pushes every active credit's due date out by a day, so a date
// can only ever be declared once.
type Holiday struct {
	CreatedAt time.Time
	Date      time.Time
	ID        int64
}
