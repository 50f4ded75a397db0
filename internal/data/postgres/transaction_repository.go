package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/transaction"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, occurred_at, kind, category, description, amount,
		from_account_id, to_account_id, reference_kind, reference_id, created_by, created_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends a transaction to the log. Rows are never updated or
// deleted afterwards.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, occurred_at, kind, category, description, amount,
			from_account_id, to_account_id, reference_kind, reference_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.OccurredAt,
		txn.Kind,
		txn.Category,
		txn.Description,
		txn.Amount,
		txn.FromAccountID,
		txn.ToAccountID,
		txn.ReferenceKind,
		txn.ReferenceID,
		txn.CreatedBy,
		txn.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction", "id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	txn, err := r.scanRow(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// List retrieves transactions newest-first, the order the balance
// reconstructor expects.
func (r *TransactionRepository) List(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE ($1::uuid IS NULL OR from_account_id = $1 OR to_account_id = $1)
		  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR occurred_at < $3)
		ORDER BY occurred_at DESC, created_at DESC
		LIMIT $4 OFFSET $5
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.querier.Query(ctx, query, filter.AccountID, filter.From, filter.To, limit, filter.Offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*transaction.Transaction
	for rows.Next() {
		txn, err := r.scanRow(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return txns, nil
}

// Count returns the number of transactions matching the filter
func (r *TransactionRepository) Count(ctx context.Context, filter transaction.Filter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE ($1::uuid IS NULL OR from_account_id = $1 OR to_account_id = $1)
		  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR occurred_at < $3)
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, filter.AccountID, filter.From, filter.To).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// SumCashFlows sums same-day income into cash accounts and expense out of
// cash accounts for the close-day expectation.
func (r *TransactionRepository) SumCashFlows(ctx context.Context, date time.Time) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(t.amount) FILTER (WHERE t.kind = 'INCOME' AND ta.kind = 'CASH'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.kind = 'EXPENSE' AND fa.kind = 'CASH'), 0)
		FROM transactions t
		LEFT JOIN accounts ta ON ta.id = t.to_account_id
		LEFT JOIN accounts fa ON fa.id = t.from_account_id
		WHERE t.occurred_at >= $1 AND t.occurred_at < $2
	`

	var cashIn, cashOut int64
	if err := r.querier.QueryRow(ctx, query, date, date.AddDate(0, 0, 1)).Scan(&cashIn, &cashOut); err != nil {
		r.logger.Error("Failed to sum cash flows", "date", date.Format("2006-01-02"), "error", err)
		return 0, 0, fmt.Errorf("failed to sum cash flows: %w", err)
	}

	return cashIn, cashOut, nil
}

// SumByKind returns total income and expense amounts for the date
func (r *TransactionRepository) SumByKind(ctx context.Context, date time.Time) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'INCOME'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'EXPENSE'), 0)
		FROM transactions
		WHERE occurred_at >= $1 AND occurred_at < $2
	`

	var income, expense int64
	if err := r.querier.QueryRow(ctx, query, date, date.AddDate(0, 0, 1)).Scan(&income, &expense); err != nil {
		r.logger.Error("Failed to sum transactions by kind", "date", date.Format("2006-01-02"), "error", err)
		return 0, 0, fmt.Errorf("failed to sum transactions by kind: %w", err)
	}

	return income, expense, nil
}

// SignedSumForAccount replays the account's full history from zero as one
// aggregate: amounts credited to it minus amounts debited from it.
func (r *TransactionRepository) SignedSumForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE to_account_id = $1), 0)
			- COALESCE(SUM(amount) FILTER (WHERE from_account_id = $1), 0)
		FROM transactions
		WHERE to_account_id = $1 OR from_account_id = $1
	`

	var sum int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		r.logger.Error("Failed to compute signed sum for account", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to compute signed sum for account: %w", err)
	}

	return sum, nil
}

func (r *TransactionRepository) scanRow(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.OccurredAt,
		&txn.Kind,
		&txn.Category,
		&txn.Description,
		&txn.Amount,
		&txn.FromAccountID,
		&txn.ToAccountID,
		&txn.ReferenceKind,
		&txn.ReferenceID,
		&txn.CreatedBy,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
