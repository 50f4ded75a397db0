package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fuelstation-ledger/internal/domain/cardpayment"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CardTypeRepository implements cardpayment.CardTypeRepository for PostgreSQL
type CardTypeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCardTypeRepository creates a new PostgreSQL card type repository
func NewCardTypeRepository(logger *slog.Logger, db *persistence.PostgresDB) cardpayment.CardTypeRepository {
	return &CardTypeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *CardTypeRepository) WithTx(tx pgx.Tx) cardpayment.CardTypeRepository {
	return &CardTypeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create persists a new card type
func (r *CardTypeRepository) Create(ctx context.Context, cardType *cardpayment.CardType) error {
	query := `
		INSERT INTO card_types (id, name, tax_rate_bps, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		cardType.ID,
		cardType.Name,
		cardType.TaxRateBps,
		cardType.Active,
		cardType.CreatedAt,
		cardType.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create card type", "name", cardType.Name, "error", err)
		return fmt.Errorf("failed to create card type: %w", err)
	}

	return nil
}

// GetByID retrieves a card type by its ID
func (r *CardTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*cardpayment.CardType, error) {
	query := `
		SELECT id, name, tax_rate_bps, active, created_at, updated_at
		FROM card_types
		WHERE id = $1
	`

	var cardType cardpayment.CardType
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&cardType.ID,
		&cardType.Name,
		&cardType.TaxRateBps,
		&cardType.Active,
		&cardType.CreatedAt,
		&cardType.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cardpayment.ErrCardTypeNotFound{CardTypeID: id}
		}
		r.logger.Error("Failed to get card type", "card_type_id", id, "error", err)
		return nil, fmt.Errorf("failed to get card type: %w", err)
	}

	return &cardType, nil
}

// List returns all card types, active first, alphabetically within each group
func (r *CardTypeRepository) List(ctx context.Context) ([]*cardpayment.CardType, error) {
	query := `
		SELECT id, name, tax_rate_bps, active, created_at, updated_at
		FROM card_types
		ORDER BY active DESC, name ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list card types", "error", err)
		return nil, fmt.Errorf("failed to list card types: %w", err)
	}
	defer rows.Close()

	var cardTypes []*cardpayment.CardType
	for rows.Next() {
		var cardType cardpayment.CardType
		err := rows.Scan(
			&cardType.ID,
			&cardType.Name,
			&cardType.TaxRateBps,
			&cardType.Active,
			&cardType.CreatedAt,
			&cardType.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan card type", "error", err)
			return nil, fmt.Errorf("failed to scan card type: %w", err)
		}
		cardTypes = append(cardTypes, &cardType)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over card types", "error", err)
		return nil, fmt.Errorf("error iterating over card types: %w", err)
	}

	return cardTypes, nil
}

// Update persists name, rate and active flag changes. Existing payments keep
// the rate captured at sale time.
func (r *CardTypeRepository) Update(ctx context.Context, cardType *cardpayment.CardType) error {
	query := `
		UPDATE card_types
		SET name = $1, tax_rate_bps = $2, active = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query,
		cardType.Name,
		cardType.TaxRateBps,
		cardType.Active,
		cardType.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update card type", "card_type_id", cardType.ID, "error", err)
		return fmt.Errorf("failed to update card type: %w", err)
	}

	if result.RowsAffected() == 0 {
		return cardpayment.ErrCardTypeNotFound{CardTypeID: cardType.ID}
	}

	return nil
}
