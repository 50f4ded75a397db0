package dayops

import (
	"errors"
	"time"

	"github.com/fuelstation-ledger/internal/domain/shared"
)

// ErrExplanationRequired is returned when a cash count deviates from the
// expectation by more than the tolerance and no written explanation was
// supplied.
var ErrExplanationRequired = errors.New("variance exceeds tolerance, explanation required")

// DailyOperation is the open/close workflow record for one calendar date.
// Lifecycle: NOT_STARTED -> OPEN -> CLOSED; once day_locked is set the
// date's figures accept no further writes.
type DailyOperation struct {
	ID                  int64            `json:"id"`
	OperationDate       time.Time        `json:"operation_date"`
	Status              shared.DayStatus `json:"status"`
	DayLocked           bool             `json:"day_locked"`
	OpeningCashActual   int64            `json:"opening_cash_actual"` // All figures in cents/minor units
	OpeningCashVariance int64            `json:"opening_cash_variance"`
	ClosingCashActual   *int64           `json:"closing_cash_actual,omitempty"`
	ClosingCashVariance *int64           `json:"closing_cash_variance,omitempty"`
	TotalSales          int64            `json:"total_sales"`
	TotalExpenses       int64            `json:"total_expenses"`
	OpenedBy            string           `json:"opened_by"`
	OpenedAt            time.Time        `json:"opened_at"`
	ClosedBy            string           `json:"closed_by,omitempty"`
	ClosedAt            *time.Time       `json:"closed_at,omitempty"`
	Notes               string           `json:"notes,omitempty"`
}

// NewDailyOperation opens the day with the physically counted cash
func NewDailyOperation(date time.Time, actualCash, variance int64, openedBy, notes string) *DailyOperation {
	return &DailyOperation{
		OperationDate:       DateOf(date),
		Status:              shared.DayStatusOpen,
		OpeningCashActual:   actualCash,
		OpeningCashVariance: variance,
		OpenedBy:            openedBy,
		OpenedAt:            time.Now(),
		Notes:               notes,
	}
}

// Close transitions the operation to CLOSED and locks the day
func (o *DailyOperation) Close(actualCash, variance, totalSales, totalExpenses int64, closedBy string) {
	now := time.Now()
	o.Status = shared.DayStatusClosed
	o.DayLocked = true
	o.ClosingCashActual = &actualCash
	o.ClosingCashVariance = &variance
	o.TotalSales = totalSales
	o.TotalExpenses = totalExpenses
	o.ClosedBy = closedBy
	o.ClosedAt = &now
}

// TolerancePolicy decides how large a cash variance may be before a written
// explanation becomes mandatory: max(fixed floor, expected x rate).
type TolerancePolicy struct {
	Floor   int64 // Minor units
	RateBps int64 // Basis points, 1 bp = 0.01%
}

// Tolerance computes the allowed absolute variance for an expected figure.
// A zero or negative expectation still gets the fixed floor so that small
// variances on an empty drawer are not all flagged.
func (p TolerancePolicy) Tolerance(expected int64) int64 {
	tolerance := p.Floor
	if expected > 0 {
		if pct := expected * p.RateBps / 10000; pct > tolerance {
			tolerance = pct
		}
	}
	return tolerance
}

// CheckVariance computes actual-expected and enforces the explanation rule
func (p TolerancePolicy) CheckVariance(expected, actual int64, explanation string) (int64, error) {
	variance := actual - expected

	abs := variance
	if abs < 0 {
		abs = -abs
	}
	if abs > p.Tolerance(expected) && explanation == "" {
		return variance, ErrExplanationRequired
	}

	return variance, nil
}

// ErrDayAlreadyStarted indicates a start-day uniqueness conflict for a date
type ErrDayAlreadyStarted struct {
	Date time.Time
}

func (e ErrDayAlreadyStarted) Error() string {
	return "day already started: " + e.Date.Format("2006-01-02")
}

// Is matches any ErrDayAlreadyStarted when the target carries a zero date
func (e ErrDayAlreadyStarted) Is(target error) bool {
	t, ok := target.(ErrDayAlreadyStarted)
	if !ok {
		return false
	}
	if t.Date.IsZero() {
		return true
	}
	return e.Date.Equal(t.Date)
}

// ErrDayNotOpen indicates a close attempt on a day that is not in OPEN state
type ErrDayNotOpen struct {
	Date time.Time
}

func (e ErrDayNotOpen) Error() string {
	return "day is not open: " + e.Date.Format("2006-01-02")
}

// Is matches any ErrDayNotOpen when the target carries a zero date
func (e ErrDayNotOpen) Is(target error) bool {
	t, ok := target.(ErrDayNotOpen)
	if !ok {
		return false
	}
	if t.Date.IsZero() {
		return true
	}
	return e.Date.Equal(t.Date)
}

// ErrOperationNotFound indicates no workflow row exists for a date
type ErrOperationNotFound struct {
	Date time.Time
}

func (e ErrOperationNotFound) Error() string {
	return "daily operation not found: " + e.Date.Format("2006-01-02")
}

// Is matches any ErrOperationNotFound when the target carries a zero date
func (e ErrOperationNotFound) Is(target error) bool {
	t, ok := target.(ErrOperationNotFound)
	if !ok {
		return false
	}
	if t.Date.IsZero() {
		return true
	}
	return e.Date.Equal(t.Date)
}

// ErrDuplicateDateRow indicates the one-row-per-date invariant was violated
type ErrDuplicateDateRow struct {
	Date time.Time
}

func (e ErrDuplicateDateRow) Error() string {
	return "daily balance row already exists: " + e.Date.Format("2006-01-02")
}

// Is matches any ErrDuplicateDateRow when the target carries a zero date
func (e ErrDuplicateDateRow) Is(target error) bool {
	t, ok := target.(ErrDuplicateDateRow)
	if !ok {
		return false
	}
	if t.Date.IsZero() {
		return true
	}
	return e.Date.Equal(t.Date)
}
