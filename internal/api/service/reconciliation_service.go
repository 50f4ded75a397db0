package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/transaction"
	"github.com/panjf2000/ants/v2"
)

// ReconciliationServiceImpl implements the ReconciliationService interface.
// Each account's check replays its full transaction history from zero and
// compares the implied balance to the stored one; the checks fan out over a
// shared worker pool.
type ReconciliationServiceImpl struct {
	accountRepo account.Repository
	txRepo      transaction.Repository
	pool        *ants.Pool
	logger      *slog.Logger
}

// NewReconciliationService creates a new reconciliation service with a
// worker pool of the given size.
func NewReconciliationService(
	accountRepo account.Repository,
	txRepo transaction.Repository,
	poolSize int,
	logger *slog.Logger,
) (*ReconciliationServiceImpl, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &ReconciliationServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Run checks every account and reports the ones whose stored balance
// diverges from the balance implied by the transaction log. Findings are
// returned for the caller to act on, never corrected in place.
func (s *ReconciliationServiceImpl) Run(ctx context.Context) ([]*Drift, error) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		drifts []*Drift
		runErr error
	)

	for _, acc := range accounts {
		acc := acc
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()

			implied, err := s.txRepo.SignedSumForAccount(ctx, acc.ID)
			if err != nil {
				mu.Lock()
				if runErr == nil {
					runErr = err
				}
				mu.Unlock()
				return
			}

			if implied == acc.Balance {
				return
			}

			s.logger.Warn("Balance drift detected",
				"account_id", acc.ID.String(),
				"account_name", acc.Name,
				"stored", acc.Balance,
				"implied", implied,
			)

			mu.Lock()
			drifts = append(drifts, &Drift{
				AccountID:   acc.ID,
				AccountName: acc.Name,
				Kind:        acc.Kind,
				Stored:      acc.Balance,
				Implied:     implied,
				Drift:       acc.Balance - implied,
			})
			mu.Unlock()
		})
		if submitErr != nil {
			// The task never ran, so settle its Add, then drain the tasks
			// already submitted before surfacing the error. Returning while
			// workers still run would let them append to drifts behind the
			// caller's back.
			wg.Done()
			wg.Wait()
			return nil, submitErr
		}
	}

	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}

	sort.Slice(drifts, func(i, j int) bool {
		return drifts[i].AccountName < drifts[j].AccountName
	})

	s.logger.Info("Reconciliation run complete",
		"accounts", len(accounts),
		"drifts", len(drifts),
	)
	return drifts, nil
}

// Shutdown releases the worker pool
func (s *ReconciliationServiceImpl) Shutdown() {
	s.logger.Info("Shutting down reconciliation worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}
