package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/dayops"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// VarianceLogRepository implements dayops.VarianceLogRepository for PostgreSQL
type VarianceLogRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewVarianceLogRepository creates a new PostgreSQL variance log repository
func NewVarianceLogRepository(logger *slog.Logger, db *persistence.PostgresDB) dayops.VarianceLogRepository {
	return &VarianceLogRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *VarianceLogRepository) WithTx(tx pgx.Tx) dayops.VarianceLogRepository {
	return &VarianceLogRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends a variance record. The log is append-only; there is no
// update or delete path.
func (r *VarianceLogRepository) Create(ctx context.Context, entry *dayops.VarianceLogEntry) error {
	query := `
		INSERT INTO cash_variance_log (variance_date, variance_type, expected_amount, actual_amount,
			difference, explanation, reported_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		entry.VarianceDate,
		entry.VarianceType,
		entry.ExpectedAmount,
		entry.ActualAmount,
		entry.Difference,
		entry.Explanation,
		entry.ReportedBy,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		r.logger.Error("Failed to create variance log entry", "date", entry.VarianceDate.Format("2006-01-02"), "error", err)
		return fmt.Errorf("failed to create variance log entry: %w", err)
	}

	return nil
}

// ListByDate returns the variance records for a date in insertion order
func (r *VarianceLogRepository) ListByDate(ctx context.Context, date time.Time) ([]*dayops.VarianceLogEntry, error) {
	query := `
		SELECT id, variance_date, variance_type, expected_amount, actual_amount,
			difference, explanation, reported_by, created_at
		FROM cash_variance_log
		WHERE variance_date = $1
		ORDER BY id ASC
	`

	rows, err := r.querier.Query(ctx, query, dayops.DateOf(date))
	if err != nil {
		r.logger.Error("Failed to list variance log entries", "date", date.Format("2006-01-02"), "error", err)
		return nil, fmt.Errorf("failed to list variance log entries: %w", err)
	}
	defer rows.Close()

	var entries []*dayops.VarianceLogEntry
	for rows.Next() {
		var entry dayops.VarianceLogEntry
		err := rows.Scan(
			&entry.ID,
			&entry.VarianceDate,
			&entry.VarianceType,
			&entry.ExpectedAmount,
			&entry.ActualAmount,
			&entry.Difference,
			&entry.Explanation,
			&entry.ReportedBy,
			&entry.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan variance log entry", "error", err)
			return nil, fmt.Errorf("failed to scan variance log entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over variance log entries", "error", err)
		return nil, fmt.Errorf("error iterating over variance log entries: %w", err)
	}

	return entries, nil
}
