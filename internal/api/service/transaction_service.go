package service

import (
	"context"

	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/domain/transaction"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RunningBalanceEntry pairs a transaction with the aggregate balances as
// they stood immediately after it posted.
type RunningBalanceEntry struct {
	*transaction.Transaction
	CashBalance  int64 `json:"cash_balance"`
	BankBalance  int64 `json:"bank_balance"`
	TotalBalance int64 `json:"total_balance"`
}

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	pgDB        *persistence.PostgresDB
	accountRepo account.Repository
	txRepo      transaction.Repository
	poster      LedgerPoster
}

// NewTransactionService creates a new transaction service
func NewTransactionService(pgDB *persistence.PostgresDB, accountRepo account.Repository, txRepo transaction.Repository, poster LedgerPoster) TransactionService {
	return &TransactionServiceImpl{
		pgDB:        pgDB,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		poster:      poster,
	}
}

// Post atomically records the transaction through the ledger poster
func (s *TransactionServiceImpl) Post(ctx context.Context, txn *transaction.Transaction) error {
	return s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return s.poster.Apply(ctx, tx, txn)
	})
}

// GetTransactionByID retrieves a transaction by its ID
func (s *TransactionServiceImpl) GetTransactionByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return s.txRepo.GetByID(ctx, id)
}

// History lists transactions newest-first and reconstructs the running
// balances by replaying backward from the current aggregates. Everything is
// read inside one repeatable-read snapshot; without it a posting landing
// between the aggregate query and the list query would skew every
// reconstructed figure.
func (s *TransactionServiceImpl) History(ctx context.Context, filter transaction.Filter) ([]*RunningBalanceEntry, int64, error) {
	var (
		entries []*RunningBalanceEntry
		total   int64
	)

	err := s.pgDB.ExecuteReadTx(ctx, func(tx pgx.Tx) error {
		accountRepoTx := s.accountRepo.WithTx(tx)
		txRepoTx := s.txRepo.WithTx(tx)

		cash, bank, err := accountRepoTx.AggregateByKind(ctx)
		if err != nil {
			return err
		}

		accounts, err := accountRepoTx.List(ctx)
		if err != nil {
			return err
		}
		kinds := make(map[uuid.UUID]shared.AccountKind, len(accounts))
		for _, acc := range accounts {
			kinds[acc.ID] = acc.Kind
		}

		total, err = txRepoTx.Count(ctx, filter)
		if err != nil {
			return err
		}

		// The replay must start from the newest transaction, so any offset
		// window is walked up to rather than skipped.
		walkFilter := filter
		walkFilter.Limit = filter.Offset + filter.Limit
		walkFilter.Offset = 0
		if filter.Limit <= 0 {
			walkFilter.Limit = 0
		}

		transactions, err := txRepoTx.List(ctx, walkFilter)
		if err != nil {
			return err
		}

		replayed := Replay(transactions, cash, bank, kinds)
		if filter.Offset > 0 && filter.Offset < len(replayed) {
			replayed = replayed[filter.Offset:]
		} else if filter.Offset >= len(replayed) {
			replayed = nil
		}
		entries = replayed
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Replay walks a newest-first transaction list backward from the current
// aggregate balances: each entry records the balances as of just after its
// transaction, then the transaction's effect is undone before moving to the
// older one. A nil account side contributed no balance change, so it is
// skipped symmetrically.
func Replay(transactions []*transaction.Transaction, cash, bank int64, kinds map[uuid.UUID]shared.AccountKind) []*RunningBalanceEntry {
	entries := make([]*RunningBalanceEntry, 0, len(transactions))

	for _, txn := range transactions {
		entries = append(entries, &RunningBalanceEntry{
			Transaction:  txn,
			CashBalance:  cash,
			BankBalance:  bank,
			TotalBalance: cash + bank,
		})

		// Undo this transaction to obtain the balances after the next older one
		if txn.ToAccountID != nil {
			switch kinds[*txn.ToAccountID] {
			case shared.AccountKindCash:
				cash -= txn.Amount
			case shared.AccountKindBank:
				bank -= txn.Amount
			}
		}
		if txn.FromAccountID != nil {
			switch kinds[*txn.FromAccountID] {
			case shared.AccountKindCash:
				cash += txn.Amount
			case shared.AccountKindBank:
				bank += txn.Amount
			}
		}
	}

	return entries
}
