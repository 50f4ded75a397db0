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

const uniqueViolationCode = "23505"

const dailyBalanceColumns = `id, balance_date, cash_opening, cash_closing, bank_opening, bank_closing,
		is_closed, closed_by, closed_at, notes, created_at, updated_at`

// DailyBalanceRepository implements dayops.BalanceRepository for PostgreSQL
type DailyBalanceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewDailyBalanceRepository creates a new PostgreSQL daily balance repository
func NewDailyBalanceRepository(logger *slog.Logger, db *persistence.PostgresDB) dayops.BalanceRepository {
	return &DailyBalanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *DailyBalanceRepository) WithTx(tx pgx.Tx) dayops.BalanceRepository {
	return &DailyBalanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the one row for a date. The uniqueness constraint maps to
// ErrDuplicateDateRow.
func (r *DailyBalanceRepository) Create(ctx context.Context, balance *dayops.DailyBalance) error {
	query := `
		INSERT INTO daily_balances (balance_date, cash_opening, cash_closing, bank_opening, bank_closing,
			is_closed, closed_by, closed_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		balance.BalanceDate,
		balance.CashOpening,
		balance.CashClosing,
		balance.BankOpening,
		balance.BankClosing,
		balance.IsClosed,
		balance.ClosedBy,
		balance.ClosedAt,
		balance.Notes,
		balance.CreatedAt,
		balance.UpdatedAt,
	).Scan(&balance.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return dayops.ErrDuplicateDateRow{Date: balance.BalanceDate}
		}
		r.logger.Error("Failed to create daily balance", "date", balance.BalanceDate.Format("2006-01-02"), "error", err)
		return fmt.Errorf("failed to create daily balance: %w", err)
	}

	return nil
}

// GetByDate retrieves the row for a date. Returns nil, nil when the date has
// not been touched yet.
func (r *DailyBalanceRepository) GetByDate(ctx context.Context, date time.Time) (*dayops.DailyBalance, error) {
	query := `
		SELECT ` + dailyBalanceColumns + `
		FROM daily_balances
		WHERE balance_date = $1
	`

	balance, err := r.scanRow(r.querier.QueryRow(ctx, query, dayops.DateOf(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get daily balance", "date", date.Format("2006-01-02"), "error", err)
		return nil, fmt.Errorf("failed to get daily balance: %w", err)
	}

	return balance, nil
}

// ApplyDelta adjusts the closing figures of the date's row by a posted
// transaction's signed per-kind deltas. Closed rows are locked and skipped.
func (r *DailyBalanceRepository) ApplyDelta(ctx context.Context, date time.Time, cashDelta, bankDelta int64) error {
	query := `
		UPDATE daily_balances
		SET cash_closing = cash_closing + $1, bank_closing = bank_closing + $2, updated_at = NOW()
		WHERE balance_date = $3 AND is_closed = FALSE
	`

	_, err := r.querier.Exec(ctx, query, cashDelta, bankDelta, dayops.DateOf(date))
	if err != nil {
		r.logger.Error("Failed to apply daily balance delta", "date", date.Format("2006-01-02"), "error", err)
		return fmt.Errorf("failed to apply daily balance delta: %w", err)
	}

	return nil
}

// Close freezes the row for a date
func (r *DailyBalanceRepository) Close(ctx context.Context, date time.Time, closedBy, notes string) error {
	query := `
		UPDATE daily_balances
		SET is_closed = TRUE, closed_by = $1, closed_at = NOW(), notes = $2, updated_at = NOW()
		WHERE balance_date = $3 AND is_closed = FALSE
	`

	result, err := r.querier.Exec(ctx, query, closedBy, notes, dayops.DateOf(date))
	if err != nil {
		r.logger.Error("Failed to close daily balance", "date", date.Format("2006-01-02"), "error", err)
		return fmt.Errorf("failed to close daily balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return dayops.ErrDayNotOpen{Date: dayops.DateOf(date)}
	}

	return nil
}

// LatestBefore returns the most recent row strictly before the date, or nil
func (r *DailyBalanceRepository) LatestBefore(ctx context.Context, date time.Time) (*dayops.DailyBalance, error) {
	query := `
		SELECT ` + dailyBalanceColumns + `
		FROM daily_balances
		WHERE balance_date < $1
		ORDER BY balance_date DESC
		LIMIT 1
	`

	return r.queryOne(ctx, query, dayops.DateOf(date))
}

// LatestClosedBefore returns the most recent closed row strictly before the
// date, or nil. Its closing cash is the start-day expectation.
func (r *DailyBalanceRepository) LatestClosedBefore(ctx context.Context, date time.Time) (*dayops.DailyBalance, error) {
	query := `
		SELECT ` + dailyBalanceColumns + `
		FROM daily_balances
		WHERE balance_date < $1 AND is_closed = TRUE
		ORDER BY balance_date DESC
		LIMIT 1
	`

	return r.queryOne(ctx, query, dayops.DateOf(date))
}

// ListUnclosedBefore returns unclosed rows strictly before the date, oldest
// first, for the backlog rollover.
func (r *DailyBalanceRepository) ListUnclosedBefore(ctx context.Context, date time.Time) ([]*dayops.DailyBalance, error) {
	query := `
		SELECT ` + dailyBalanceColumns + `
		FROM daily_balances
		WHERE balance_date < $1 AND is_closed = FALSE
		ORDER BY balance_date ASC
	`

	rows, err := r.querier.Query(ctx, query, dayops.DateOf(date))
	if err != nil {
		r.logger.Error("Failed to list unclosed daily balances", "error", err)
		return nil, fmt.Errorf("failed to list unclosed daily balances: %w", err)
	}
	defer rows.Close()

	var balances []*dayops.DailyBalance
	for rows.Next() {
		balance, err := r.scanRow(rows)
		if err != nil {
			r.logger.Error("Failed to scan daily balance", "error", err)
			return nil, fmt.Errorf("failed to scan daily balance: %w", err)
		}
		balances = append(balances, balance)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over daily balances", "error", err)
		return nil, fmt.Errorf("error iterating over daily balances: %w", err)
	}

	return balances, nil
}

func (r *DailyBalanceRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*dayops.DailyBalance, error) {
	balance, err := r.scanRow(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to query daily balance", "error", err)
		return nil, fmt.Errorf("failed to query daily balance: %w", err)
	}
	return balance, nil
}

func (r *DailyBalanceRepository) scanRow(row pgx.Row) (*dayops.DailyBalance, error) {
	var balance dayops.DailyBalance
	err := row.Scan(
		&balance.ID,
		&balance.BalanceDate,
		&balance.CashOpening,
		&balance.CashClosing,
		&balance.BankOpening,
		&balance.BankClosing,
		&balance.IsClosed,
		&balance.ClosedBy,
		&balance.ClosedAt,
		&balance.Notes,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}
