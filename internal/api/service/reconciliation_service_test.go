package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/shared"
)

func TestReconciliationService_Run(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("CleanRunReportsNothing", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		txRepo := new(MockTransactionRepository)
		service, err := NewReconciliationService(accountRepo, txRepo, 4, logger)
		require.NoError(t, err)
		defer service.Shutdown()

		accounts := []*account.Account{
			{ID: uuid.New(), Name: "Drawer", Kind: shared.AccountKindCash, Balance: 120000},
			{ID: uuid.New(), Name: "Main Bank", Kind: shared.AccountKindBank, Balance: 4500000},
		}
		accountRepo.On("List", ctx).Return(accounts, nil).Once()
		txRepo.On("SignedSumForAccount", ctx, accounts[0].ID).Return(int64(120000), nil).Once()
		txRepo.On("SignedSumForAccount", ctx, accounts[1].ID).Return(int64(4500000), nil).Once()

		drifts, err := service.Run(ctx)

		require.NoError(t, err)
		assert.Empty(t, drifts)
		accountRepo.AssertExpectations(t)
		txRepo.AssertExpectations(t)
	})

	t.Run("ReportsDriftsSortedByName", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		txRepo := new(MockTransactionRepository)
		service, err := NewReconciliationService(accountRepo, txRepo, 4, logger)
		require.NoError(t, err)
		defer service.Shutdown()

		accounts := []*account.Account{
			{ID: uuid.New(), Name: "Zulu Bank", Kind: shared.AccountKindBank, Balance: 900000},
			{ID: uuid.New(), Name: "Alpha Drawer", Kind: shared.AccountKindCash, Balance: 50000},
		}
		accountRepo.On("List", ctx).Return(accounts, nil).Once()
		txRepo.On("SignedSumForAccount", ctx, accounts[0].ID).Return(int64(899000), nil).Once()
		txRepo.On("SignedSumForAccount", ctx, accounts[1].ID).Return(int64(51000), nil).Once()

		drifts, err := service.Run(ctx)

		require.NoError(t, err)
		require.Len(t, drifts, 2)
		assert.Equal(t, "Alpha Drawer", drifts[0].AccountName)
		assert.Equal(t, int64(-1000), drifts[0].Drift)
		assert.Equal(t, "Zulu Bank", drifts[1].AccountName)
		assert.Equal(t, int64(1000), drifts[1].Drift)
	})

	t.Run("FirstErrorAbortsTheRun", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		txRepo := new(MockTransactionRepository)
		service, err := NewReconciliationService(accountRepo, txRepo, 2, logger)
		require.NoError(t, err)
		defer service.Shutdown()

		expectedErr := errors.New("db error")
		accounts := []*account.Account{
			{ID: uuid.New(), Name: "Drawer", Kind: shared.AccountKindCash, Balance: 120000},
		}
		accountRepo.On("List", ctx).Return(accounts, nil).Once()
		txRepo.On("SignedSumForAccount", ctx, accounts[0].ID).Return(int64(0), expectedErr).Once()

		drifts, err := service.Run(ctx)

		assert.ErrorIs(t, err, expectedErr)
		assert.Nil(t, drifts)
	})

	t.Run("SubmitFailureWaitsForInFlightChecks", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		txRepo := new(MockTransactionRepository)

		// A non-blocking pool of one worker rejects the second submission
		// while the first check is still running.
		pool, err := ants.NewPool(1, ants.WithNonblocking(true))
		require.NoError(t, err)
		service := &ReconciliationServiceImpl{
			accountRepo: accountRepo,
			txRepo:      txRepo,
			pool:        pool,
			logger:      logger,
		}
		defer service.Shutdown()

		accounts := []*account.Account{
			{ID: uuid.New(), Name: "Drawer", Kind: shared.AccountKindCash, Balance: 120000},
			{ID: uuid.New(), Name: "Main Bank", Kind: shared.AccountKindBank, Balance: 4500000},
		}
		accountRepo.On("List", ctx).Return(accounts, nil).Once()

		release := make(chan struct{})
		var completed atomic.Bool
		txRepo.On("SignedSumForAccount", ctx, accounts[0].ID).
			Run(func(mock.Arguments) {
				<-release
				completed.Store(true)
			}).
			Return(int64(120000), nil).Once()

		done := make(chan struct{})
		var (
			gotDrifts []*Drift
			gotErr    error
		)
		go func() {
			gotDrifts, gotErr = service.Run(ctx)
			close(done)
		}()

		// Give Run time to submit both tasks, then let the first one finish.
		time.Sleep(50 * time.Millisecond)
		close(release)
		<-done

		assert.ErrorIs(t, gotErr, ants.ErrPoolOverload)
		assert.Nil(t, gotDrifts)
		assert.True(t, completed.Load(), "in-flight check must finish before Run returns")
		txRepo.AssertExpectations(t)
	})

	t.Run("ListFailurePropagates", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		txRepo := new(MockTransactionRepository)
		service, err := NewReconciliationService(accountRepo, txRepo, 2, logger)
		require.NoError(t, err)
		defer service.Shutdown()

		expectedErr := errors.New("db error")
		accountRepo.On("List", ctx).Return(nil, expectedErr).Once()

		_, err = service.Run(ctx)
		assert.ErrorIs(t, err, expectedErr)
	})
}
