package dayops

import (
	"time"

	"github.com/fuelstation-ledger/internal/domain/shared"
)

// VarianceLogEntry is the append-only audit record written whenever a
// non-zero variance is observed at day open or close.
type VarianceLogEntry struct {
	ID             int64               `json:"id"`
	VarianceDate   time.Time           `json:"variance_date"`
	VarianceType   shared.VarianceType `json:"variance_type"`
	ExpectedAmount int64               `json:"expected_amount"` // Minor units
	ActualAmount   int64               `json:"actual_amount"`
	Difference     int64               `json:"difference"`
	Explanation    string              `json:"explanation,omitempty"`
	ReportedBy     string              `json:"reported_by"`
	CreatedAt      time.Time           `json:"created_at"`
}

// NewVarianceLogEntry records an observed variance for a date
func NewVarianceLogEntry(date time.Time, varianceType shared.VarianceType, expected, actual int64, explanation, reportedBy string) *VarianceLogEntry {
	return &VarianceLogEntry{
		VarianceDate:   DateOf(date),
		VarianceType:   varianceType,
		ExpectedAmount: expected,
		ActualAmount:   actual,
		Difference:     actual - expected,
		Explanation:    explanation,
		ReportedBy:     reportedBy,
		CreatedAt:      time.Now(),
	}
}
