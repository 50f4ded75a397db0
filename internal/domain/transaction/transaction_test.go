package transaction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/fuelstation-ledger/internal/domain/shared"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestTransaction_Validate(t *testing.T) {
	accA := uuid.New()
	accB := uuid.New()

	base := func(kind shared.TransactionKind, from, to *uuid.UUID) *Transaction {
		return &Transaction{
			ID:            uuid.New(),
			OccurredAt:    time.Now(),
			Kind:          kind,
			Category:      "fuel_sale",
			Amount:        10000,
			FromAccountID: from,
			ToAccountID:   to,
			CreatedBy:     "cashier-1",
			CreatedAt:     time.Now(),
		}
	}

	t.Run("IncomeRequiresDestinationOnly", func(t *testing.T) {
		assert.NoError(t, base(shared.TransactionKindIncome, nil, ptr(accA)).Validate())
		assert.ErrorIs(t, base(shared.TransactionKindIncome, nil, nil).Validate(), ErrInvalidShape)
		assert.ErrorIs(t, base(shared.TransactionKindIncome, ptr(accB), ptr(accA)).Validate(), ErrInvalidShape)
	})

	t.Run("ExpenseForbidsDestination", func(t *testing.T) {
		assert.NoError(t, base(shared.TransactionKindExpense, ptr(accA), nil).Validate())
		assert.ErrorIs(t, base(shared.TransactionKindExpense, ptr(accA), ptr(accB)).Validate(), ErrInvalidShape)
	})

	t.Run("RecordOnlyExpenseHasNoAccounts", func(t *testing.T) {
		assert.NoError(t, base(shared.TransactionKindExpense, nil, nil).Validate())
	})

	t.Run("TransferRequiresDestination", func(t *testing.T) {
		assert.NoError(t, base(shared.TransactionKindTransfer, ptr(accA), ptr(accB)).Validate())
		assert.NoError(t, base(shared.TransactionKindTransfer, nil, ptr(accB)).Validate(), "external source is allowed")
		assert.ErrorIs(t, base(shared.TransactionKindTransfer, ptr(accA), nil).Validate(), ErrInvalidShape)
	})

	t.Run("AmountMustBePositive", func(t *testing.T) {
		txn := base(shared.TransactionKindIncome, nil, ptr(accA))
		txn.Amount = 0
		assert.ErrorIs(t, txn.Validate(), ErrNonPositiveAmount)

		txn.Amount = -500
		assert.ErrorIs(t, txn.Validate(), ErrNonPositiveAmount)
	})

	t.Run("UnknownKindRejected", func(t *testing.T) {
		txn := base("ADJUSTMENT", nil, ptr(accA))
		assert.ErrorIs(t, txn.Validate(), ErrInvalidKind)
	})
}
