package service

import (
	"context"
	"time"

	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/domain/transaction"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const openingBalanceCategory = "opening_balance"

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	pgDB        *persistence.PostgresDB
	accountRepo account.Repository
	poster      LedgerPoster
}

// NewAccountService creates a new account service
func NewAccountService(pgDB *persistence.PostgresDB, accountRepo account.Repository, poster LedgerPoster) AccountService {
	return &AccountServiceImpl{
		pgDB:        pgDB,
		accountRepo: accountRepo,
		poster:      poster,
	}
}

// CreateAccount creates a new account, checking for duplicate names. A
// non-zero opening balance goes through the posting path so the transaction
// log stays the single source of truth for every balance.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, name string, kind shared.AccountKind, openingBalance int64, actor string) (*account.Account, error) {
	existing, err := s.accountRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, account.ErrDuplicateName{Name: name}
	}

	acc, err := account.NewAccount(name, kind)
	if err != nil {
		return nil, err
	}

	err = s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.accountRepo.WithTx(tx).Create(ctx, acc); err != nil {
			return err
		}

		if openingBalance == 0 {
			return nil
		}

		accountID := acc.ID
		opening := &transaction.Transaction{
			ID:          uuid.New(),
			OccurredAt:  time.Now(),
			Kind:        shared.TransactionKindIncome,
			Category:    openingBalanceCategory,
			Description: "Opening balance for " + acc.Name,
			Amount:      openingBalance,
			ToAccountID: &accountID,
			CreatedBy:   actor,
			CreatedAt:   time.Now(),
		}
		return s.poster.Apply(ctx, tx, opening)
	})
	if err != nil {
		return nil, err
	}

	if openingBalance != 0 {
		// Re-read so the caller sees the posted balance
		return s.accountRepo.GetByID(ctx, acc.ID)
	}
	return acc, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// ListAccounts returns all accounts with their stored balances
func (s *AccountServiceImpl) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	return s.accountRepo.List(ctx)
}
