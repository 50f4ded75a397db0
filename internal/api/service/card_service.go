package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/audit"
	"github.com/fuelstation-ledger/internal/domain/cardpayment"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/domain/transaction"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	cardSettlementCategory = "card_settlement"
	cardCommissionCategory = "card_commission"
)

// CardServiceImpl implements the CardService interface
type CardServiceImpl struct {
	pgDB         *persistence.PostgresDB
	cardTypeRepo cardpayment.CardTypeRepository
	paymentRepo  cardpayment.Repository
	outboxRepo   audit.Repository
	poster       LedgerPoster
	logger       *slog.Logger
}

// NewCardService creates a new card payment service
func NewCardService(
	pgDB *persistence.PostgresDB,
	cardTypeRepo cardpayment.CardTypeRepository,
	paymentRepo cardpayment.Repository,
	outboxRepo audit.Repository,
	poster LedgerPoster,
	logger *slog.Logger,
) CardService {
	return &CardServiceImpl{
		pgDB:         pgDB,
		cardTypeRepo: cardTypeRepo,
		paymentRepo:  paymentRepo,
		outboxRepo:   outboxRepo,
		poster:       poster,
		logger:       logger,
	}
}

// CreateCardType creates a new active card type
func (s *CardServiceImpl) CreateCardType(ctx context.Context, name string, taxRateBps int64) (*cardpayment.CardType, error) {
	cardType, err := cardpayment.NewCardType(name, taxRateBps)
	if err != nil {
		return nil, err
	}

	if err := s.cardTypeRepo.Create(ctx, cardType); err != nil {
		return nil, err
	}

	return cardType, nil
}

// UpdateCardType updates a card type's configuration. Payments already
// recorded keep the rate captured at their sale time.
func (s *CardServiceImpl) UpdateCardType(ctx context.Context, id uuid.UUID, name string, taxRateBps int64, active bool) (*cardpayment.CardType, error) {
	cardType, err := s.cardTypeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name == "" {
		return nil, cardpayment.ErrEmptyName
	}
	if taxRateBps < 0 || taxRateBps > 10000 {
		return nil, cardpayment.ErrInvalidTaxRate
	}

	cardType.Name = name
	cardType.TaxRateBps = taxRateBps
	cardType.Active = active
	cardType.UpdatedAt = time.Now()

	if err := s.cardTypeRepo.Update(ctx, cardType); err != nil {
		return nil, err
	}

	return cardType, nil
}

// ListCardTypes returns all card types
func (s *CardServiceImpl) ListCardTypes(ctx context.Context) ([]*cardpayment.CardType, error) {
	return s.cardTypeRepo.List(ctx)
}

// RecordSale records a card payment on hold with the tax figures frozen
// from the card type's current rate.
func (s *CardServiceImpl) RecordSale(ctx context.Context, cardTypeID uuid.UUID, grossAmount int64, date time.Time, actor string) (*cardpayment.CardPayment, error) {
	cardType, err := s.cardTypeRepo.GetByID(ctx, cardTypeID)
	if err != nil {
		return nil, err
	}
	if !cardType.Active {
		return nil, cardpayment.ErrCardTypeInactive{CardTypeID: cardTypeID}
	}

	payment, err := cardpayment.NewCardPayment(cardType, grossAmount, date, actor)
	if err != nil {
		return nil, err
	}

	err = s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.paymentRepo.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}

		message, err := audit.NewMessage(audit.EventCardSaleRecorded, string(shared.ReferenceKindCardPayment), payment.ID.String(), actor, payment)
		if err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Card sale recorded",
		"payment_id", payment.ID.String(),
		"card_type", cardType.Name,
		"gross", payment.Amount,
		"tax", payment.TaxAmount,
		"net", payment.NetAmount,
	)
	return payment, nil
}

// ListPayments returns payments newest-first with the total match count
func (s *CardServiceImpl) ListPayments(ctx context.Context, status shared.CardPaymentStatus, limit, offset int) ([]*cardpayment.CardPayment, int64, error) {
	payments, err := s.paymentRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.paymentRepo.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// Settle receives a held payment into the destination account. The status
// flip, the net transfer, the commission expense and any linked writes share
// one database transaction; the destination balance rises by exactly the net
// amount through the posting path.
func (s *CardServiceImpl) Settle(ctx context.Context, paymentID uuid.UUID, destinationAccountID *uuid.UUID, note, actor string, linked LinkedRecordFunc) (*cardpayment.CardPayment, error) {
	if destinationAccountID == nil {
		return nil, cardpayment.ErrDestinationRequired
	}

	var payment *cardpayment.CardPayment
	err := s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		paymentRepoTx := s.paymentRepo.WithTx(tx)

		var err error
		payment, err = paymentRepoTx.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}

		receivedAt := time.Now()
		if err := paymentRepoTx.MarkReceived(ctx, paymentID, *destinationAccountID, receivedAt); err != nil {
			return err
		}
		payment.Status = shared.CardPaymentStatusReceived
		payment.ReceivedAt = &receivedAt
		payment.SettlementAccountID = destinationAccountID

		paymentRef := payment.ID
		netTransfer := &transaction.Transaction{
			ID:            uuid.New(),
			OccurredAt:    receivedAt,
			Kind:          shared.TransactionKindTransfer,
			Category:      cardSettlementCategory,
			Description:   note,
			Amount:        payment.NetAmount,
			ToAccountID:   destinationAccountID,
			ReferenceKind: shared.ReferenceKindCardPayment,
			ReferenceID:   &paymentRef,
			CreatedBy:     actor,
			CreatedAt:     receivedAt,
		}
		if err := s.poster.Apply(ctx, tx, netTransfer); err != nil {
			return err
		}

		if payment.TaxAmount > 0 {
			commission := &transaction.Transaction{
				ID:            uuid.New(),
				OccurredAt:    receivedAt,
				Kind:          shared.TransactionKindExpense,
				Category:      cardCommissionCategory,
				Description:   note,
				Amount:        payment.TaxAmount,
				ReferenceKind: shared.ReferenceKindCardPayment,
				ReferenceID:   &paymentRef,
				CreatedBy:     actor,
				CreatedAt:     receivedAt,
			}
			if err := s.poster.Apply(ctx, tx, commission); err != nil {
				return err
			}
		}

		if linked != nil {
			if err := linked(ctx, tx); err != nil {
				return err
			}
		}

		message, err := audit.NewMessage(audit.EventCardSettled, string(shared.ReferenceKindCardPayment), payment.ID.String(), actor, payment)
		if err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Card payment settled",
		"payment_id", payment.ID.String(),
		"destination_account_id", destinationAccountID.String(),
		"net", payment.NetAmount,
		"tax", payment.TaxAmount,
		"actor", actor,
	)
	return payment, nil
}
