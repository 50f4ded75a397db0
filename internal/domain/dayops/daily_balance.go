package dayops

import (
	"time"
)

// DateOf truncates a timestamp to its UTC calendar date, the key every
// daily row is scoped by.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyBalance is the per-date snapshot of opening and closing cash/bank
// figures. Exactly one row exists per date. Closing figures start equal to
// the openings and drift as same-day transactions post; once the row is
// closed they are frozen.
type DailyBalance struct {
	ID          int64      `json:"id"`
	BalanceDate time.Time  `json:"balance_date"`
	CashOpening int64      `json:"cash_opening"` // All figures in cents/minor units
	CashClosing int64      `json:"cash_closing"`
	BankOpening int64      `json:"bank_opening"`
	BankClosing int64      `json:"bank_closing"`
	IsClosed    bool       `json:"is_closed"`
	ClosedBy    string     `json:"closed_by,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewDailyBalance creates the row for a date with closings starting at the
// openings.
func NewDailyBalance(date time.Time, cashOpening, bankOpening int64) *DailyBalance {
	return &DailyBalance{
		BalanceDate: DateOf(date),
		CashOpening: cashOpening,
		CashClosing: cashOpening,
		BankOpening: bankOpening,
		BankClosing: bankOpening,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}
