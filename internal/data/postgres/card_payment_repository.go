package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/cardpayment"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const cardPaymentColumns = `id, payment_date, card_type_id, amount, tax_rate_bps, tax_amount, net_amount,
		status, received_at, settlement_account_id, created_by, created_at`

// CardPaymentRepository implements cardpayment.Repository for PostgreSQL
type CardPaymentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCardPaymentRepository creates a new PostgreSQL card payment repository
func NewCardPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) cardpayment.Repository {
	return &CardPaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *CardPaymentRepository) WithTx(tx pgx.Tx) cardpayment.Repository {
	return &CardPaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create persists a new card payment on hold
func (r *CardPaymentRepository) Create(ctx context.Context, payment *cardpayment.CardPayment) error {
	query := `
		INSERT INTO card_payments (id, payment_date, card_type_id, amount, tax_rate_bps, tax_amount, net_amount,
			status, received_at, settlement_account_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		payment.ID,
		payment.PaymentDate,
		payment.CardTypeID,
		payment.Amount,
		payment.TaxRateBps,
		payment.TaxAmount,
		payment.NetAmount,
		payment.Status,
		payment.ReceivedAt,
		payment.SettlementAccountID,
		payment.CreatedBy,
		payment.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create card payment", "payment_id", payment.ID, "error", err)
		return fmt.Errorf("failed to create card payment: %w", err)
	}

	return nil
}

// GetByID retrieves a card payment by its ID
func (r *CardPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*cardpayment.CardPayment, error) {
	query := `
		SELECT ` + cardPaymentColumns + `
		FROM card_payments
		WHERE id = $1
	`

	payment, err := r.scanRow(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cardpayment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to get card payment", "payment_id", id, "error", err)
		return nil, fmt.Errorf("failed to get card payment: %w", err)
	}

	return payment, nil
}

// List returns card payments newest first, optionally filtered by status
func (r *CardPaymentRepository) List(ctx context.Context, status shared.CardPaymentStatus, limit, offset int) ([]*cardpayment.CardPayment, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + cardPaymentColumns + `
		FROM card_payments
		WHERE ($1 = '' OR status = $1)
		ORDER BY payment_date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list card payments", "error", err)
		return nil, fmt.Errorf("failed to list card payments: %w", err)
	}
	defer rows.Close()

	var payments []*cardpayment.CardPayment
	for rows.Next() {
		payment, err := r.scanRow(rows)
		if err != nil {
			r.logger.Error("Failed to scan card payment", "error", err)
			return nil, fmt.Errorf("failed to scan card payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over card payments", "error", err)
		return nil, fmt.Errorf("error iterating over card payments: %w", err)
	}

	return payments, nil
}

// Count returns the number of card payments matching the status filter
func (r *CardPaymentRepository) Count(ctx context.Context, status shared.CardPaymentStatus) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM card_payments
		WHERE ($1 = '' OR status = $1)
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, string(status)).Scan(&count); err != nil {
		r.logger.Error("Failed to count card payments", "error", err)
		return 0, fmt.Errorf("failed to count card payments: %w", err)
	}

	return count, nil
}

// MarkReceived flips the payment to RECEIVED. The status guard in the WHERE
// clause makes a lost race surface as ErrAlreadySettled rather than a
// second credit.
func (r *CardPaymentRepository) MarkReceived(ctx context.Context, id uuid.UUID, settlementAccountID uuid.UUID, receivedAt time.Time) error {
	query := `
		UPDATE card_payments
		SET status = $1, received_at = $2, settlement_account_id = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query,
		shared.CardPaymentStatusReceived,
		receivedAt,
		settlementAccountID,
		id,
		shared.CardPaymentStatusHold,
	)
	if err != nil {
		r.logger.Error("Failed to mark card payment received", "payment_id", id, "error", err)
		return fmt.Errorf("failed to mark card payment received: %w", err)
	}

	if result.RowsAffected() == 0 {
		return cardpayment.ErrAlreadySettled{PaymentID: id}
	}

	return nil
}

func (r *CardPaymentRepository) scanRow(row pgx.Row) (*cardpayment.CardPayment, error) {
	var payment cardpayment.CardPayment
	err := row.Scan(
		&payment.ID,
		&payment.PaymentDate,
		&payment.CardTypeID,
		&payment.Amount,
		&payment.TaxRateBps,
		&payment.TaxAmount,
		&payment.NetAmount,
		&payment.Status,
		&payment.ReceivedAt,
		&payment.SettlementAccountID,
		&payment.CreatedBy,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
