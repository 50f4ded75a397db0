package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/shared"
)

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateNameRejectedBeforeAnyWrite", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		svc := NewAccountService(nil, mockRepo, nil)

		existing := &account.Account{ID: uuid.New(), Name: "Main Register", Kind: shared.AccountKindCash}
		mockRepo.On("GetByName", mock.Anything, "Main Register").Return(existing, nil)

		acc, err := svc.CreateAccount(ctx, "Main Register", shared.AccountKindCash, 0, "cashier-1")
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, account.ErrDuplicateName{Name: "Main Register"})

		mockRepo.AssertNotCalled(t, "Create")
		mockRepo.AssertExpectations(t)
	})

	t.Run("EmptyNameRejected", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		svc := NewAccountService(nil, mockRepo, nil)

		mockRepo.On("GetByName", mock.Anything, "").Return(nil, nil)

		acc, err := svc.CreateAccount(ctx, "", shared.AccountKindCash, 0, "cashier-1")
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, account.ErrEmptyName)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InvalidKindRejected", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		svc := NewAccountService(nil, mockRepo, nil)

		mockRepo.On("GetByName", mock.Anything, "Wallet").Return(nil, nil)

		acc, err := svc.CreateAccount(ctx, "Wallet", shared.AccountKind("WALLET"), 0, "cashier-1")
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, account.ErrInvalidKind)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NameLookupFailurePropagates", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		svc := NewAccountService(nil, mockRepo, nil)

		mockRepo.On("GetByName", mock.Anything, "Main Register").Return(nil, errors.New("db error"))

		acc, err := svc.CreateAccount(ctx, "Main Register", shared.AccountKindCash, 0, "cashier-1")
		assert.Nil(t, acc)
		assert.EqualError(t, err, "db error")
		mockRepo.AssertExpectations(t)
	})
}

func TestAccountService_GetAccountByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		svc := NewAccountService(nil, mockRepo, nil)

		id := uuid.New()
		expected := &account.Account{
			ID:        id,
			Name:      "Fuel Bank",
			Kind:      shared.AccountKindBank,
			Balance:   450000,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		mockRepo.On("GetByID", mock.Anything, id).Return(expected, nil)

		acc, err := svc.GetAccountByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, expected, acc)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		svc := NewAccountService(nil, mockRepo, nil)

		id := uuid.New()
		mockRepo.On("GetByID", mock.Anything, id).Return(nil, account.ErrAccountNotFound{AccountID: id})

		acc, err := svc.GetAccountByID(ctx, id)
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{})
		mockRepo.AssertExpectations(t)
	})
}

func TestAccountService_ListAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsStoredBalances", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		svc := NewAccountService(nil, mockRepo, nil)

		accounts := []*account.Account{
			{ID: uuid.New(), Name: "Main Register", Kind: shared.AccountKindCash, Balance: 120000},
			{ID: uuid.New(), Name: "Fuel Bank", Kind: shared.AccountKindBank, Balance: 450000},
		}
		mockRepo.On("List", mock.Anything).Return(accounts, nil)

		got, err := svc.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, accounts, got)
		mockRepo.AssertExpectations(t)
	})
}
