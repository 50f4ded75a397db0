package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/dayops"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const dailyOperationColumns = `id, operation_date, status, day_locked, opening_cash_actual, opening_cash_variance,
		closing_cash_actual, closing_cash_variance, total_sales, total_expenses,
		opened_by, opened_at, closed_by, closed_at, notes`

// DailyOperationRepository implements dayops.OperationRepository for PostgreSQL
type DailyOperationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewDailyOperationRepository creates a new PostgreSQL daily operation repository
func NewDailyOperationRepository(logger *slog.Logger, db *persistence.PostgresDB) dayops.OperationRepository {
	return &DailyOperationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *DailyOperationRepository) WithTx(tx pgx.Tx) dayops.OperationRepository {
	return &DailyOperationRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the workflow row for a date. The uniqueness constraint is
// what makes a concurrent double start-day lose with ErrDayAlreadyStarted.
func (r *DailyOperationRepository) Create(ctx context.Context, op *dayops.DailyOperation) error {
	query := `
		INSERT INTO daily_operations (operation_date, status, day_locked, opening_cash_actual, opening_cash_variance,
			closing_cash_actual, closing_cash_variance, total_sales, total_expenses,
			opened_by, opened_at, closed_by, closed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		op.OperationDate,
		op.Status,
		op.DayLocked,
		op.OpeningCashActual,
		op.OpeningCashVariance,
		op.ClosingCashActual,
		op.ClosingCashVariance,
		op.TotalSales,
		op.TotalExpenses,
		op.OpenedBy,
		op.OpenedAt,
		op.ClosedBy,
		op.ClosedAt,
		op.Notes,
	).Scan(&op.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return dayops.ErrDayAlreadyStarted{Date: op.OperationDate}
		}
		r.logger.Error("Failed to create daily operation", "date", op.OperationDate.Format("2006-01-02"), "error", err)
		return fmt.Errorf("failed to create daily operation: %w", err)
	}

	return nil
}

// GetByDate retrieves the workflow row for a date, or nil, nil
func (r *DailyOperationRepository) GetByDate(ctx context.Context, date time.Time) (*dayops.DailyOperation, error) {
	query := `
		SELECT ` + dailyOperationColumns + `
		FROM daily_operations
		WHERE operation_date = $1
	`

	op, err := r.scanRow(r.querier.QueryRow(ctx, query, dayops.DateOf(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get daily operation", "date", date.Format("2006-01-02"), "error", err)
		return nil, fmt.Errorf("failed to get daily operation: %w", err)
	}

	return op, nil
}

// Update persists the full state of an operation row
func (r *DailyOperationRepository) Update(ctx context.Context, op *dayops.DailyOperation) error {
	query := `
		UPDATE daily_operations
		SET status = $1, day_locked = $2, closing_cash_actual = $3, closing_cash_variance = $4,
			total_sales = $5, total_expenses = $6, closed_by = $7, closed_at = $8, notes = $9
		WHERE id = $10
	`

	result, err := r.querier.Exec(ctx, query,
		op.Status,
		op.DayLocked,
		op.ClosingCashActual,
		op.ClosingCashVariance,
		op.TotalSales,
		op.TotalExpenses,
		op.ClosedBy,
		op.ClosedAt,
		op.Notes,
		op.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update daily operation", "id", op.ID, "error", err)
		return fmt.Errorf("failed to update daily operation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return dayops.ErrDayNotOpen{Date: op.OperationDate}
	}

	return nil
}

// ListOpenBefore returns OPEN workflow rows strictly before the date, oldest
// first, for the backlog rollover.
func (r *DailyOperationRepository) ListOpenBefore(ctx context.Context, date time.Time) ([]*dayops.DailyOperation, error) {
	query := `
		SELECT ` + dailyOperationColumns + `
		FROM daily_operations
		WHERE operation_date < $1 AND status = 'OPEN'
		ORDER BY operation_date ASC
	`

	rows, err := r.querier.Query(ctx, query, dayops.DateOf(date))
	if err != nil {
		r.logger.Error("Failed to list open daily operations", "error", err)
		return nil, fmt.Errorf("failed to list open daily operations: %w", err)
	}
	defer rows.Close()

	var ops []*dayops.DailyOperation
	for rows.Next() {
		op, err := r.scanRow(rows)
		if err != nil {
			r.logger.Error("Failed to scan daily operation", "error", err)
			return nil, fmt.Errorf("failed to scan daily operation: %w", err)
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over daily operations", "error", err)
		return nil, fmt.Errorf("error iterating over daily operations: %w", err)
	}

	return ops, nil
}

func (r *DailyOperationRepository) scanRow(row pgx.Row) (*dayops.DailyOperation, error) {
	var op dayops.DailyOperation
	err := row.Scan(
		&op.ID,
		&op.OperationDate,
		&op.Status,
		&op.DayLocked,
		&op.OpeningCashActual,
		&op.OpeningCashVariance,
		&op.ClosingCashActual,
		&op.ClosingCashVariance,
		&op.TotalSales,
		&op.TotalExpenses,
		&op.OpenedBy,
		&op.OpenedAt,
		&op.ClosedBy,
		&op.ClosedAt,
		&op.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}
