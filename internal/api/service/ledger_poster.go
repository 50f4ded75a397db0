package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/audit"
	"github.com/fuelstation-ledger/internal/domain/dayops"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerPosterImpl implements the LedgerPoster interface
type LedgerPosterImpl struct {
	accountRepo account.Repository
	txRepo      transaction.Repository
	balanceRepo dayops.BalanceRepository
	outboxRepo  audit.Repository
	logger      *slog.Logger
}

// NewLedgerPoster creates a new ledger poster
func NewLedgerPoster(
	accountRepo account.Repository,
	txRepo transaction.Repository,
	balanceRepo dayops.BalanceRepository,
	outboxRepo audit.Repository,
	logger *slog.Logger,
) LedgerPoster {
	return &LedgerPosterImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		balanceRepo: balanceRepo,
		outboxRepo:  outboxRepo,
		logger:      logger,
	}
}

// Apply validates and records the transaction and moves every balance it
// touches: the referenced account rows and the daily-balance row for the
// transaction's date. Runs inside the caller's database transaction so the
// whole posting commits or rolls back as one.
func (p *LedgerPosterImpl) Apply(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	accountRepoTx := p.accountRepo.WithTx(tx)
	txRepoTx := p.txRepo.WithTx(tx)
	balanceRepoTx := p.balanceRepo.WithTx(tx)

	kinds, err := p.lockAccounts(ctx, accountRepoTx, txn)
	if err != nil {
		return err
	}

	if err := p.ensureDailyRow(ctx, accountRepoTx, balanceRepoTx, txn.OccurredAt); err != nil {
		return err
	}

	if err := txRepoTx.Create(ctx, txn); err != nil {
		return err
	}

	var cashDelta, bankDelta int64
	if txn.FromAccountID != nil {
		if err := accountRepoTx.AdjustBalance(ctx, *txn.FromAccountID, -txn.Amount); err != nil {
			return err
		}
		switch kinds[*txn.FromAccountID] {
		case shared.AccountKindCash:
			cashDelta -= txn.Amount
		case shared.AccountKindBank:
			bankDelta -= txn.Amount
		}
	}
	if txn.ToAccountID != nil {
		if err := accountRepoTx.AdjustBalance(ctx, *txn.ToAccountID, txn.Amount); err != nil {
			return err
		}
		switch kinds[*txn.ToAccountID] {
		case shared.AccountKindCash:
			cashDelta += txn.Amount
		case shared.AccountKindBank:
			bankDelta += txn.Amount
		}
	}

	if cashDelta != 0 || bankDelta != 0 {
		if err := balanceRepoTx.ApplyDelta(ctx, txn.OccurredAt, cashDelta, bankDelta); err != nil {
			return err
		}
	}

	message, err := audit.NewMessage(audit.EventTransactionPosted, "transactions", txn.ID.String(), txn.CreatedBy, txn)
	if err != nil {
		return fmt.Errorf("failed to build audit message for transaction %s: %w", txn.ID.String(), err)
	}
	if err := p.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return err
	}

	p.logger.Debug("Posted transaction",
		"transaction_id", txn.ID.String(),
		"kind", string(txn.Kind),
		"amount", txn.Amount,
	)
	return nil
}

// lockAccounts locks the referenced account rows in a stable order so two
// concurrent postings over the same pair cannot deadlock, and returns each
// account's kind for the per-kind daily deltas.
func (p *LedgerPosterImpl) lockAccounts(ctx context.Context, repo account.Repository, txn *transaction.Transaction) (map[uuid.UUID]shared.AccountKind, error) {
	var ids []uuid.UUID
	if txn.FromAccountID != nil {
		ids = append(ids, *txn.FromAccountID)
	}
	if txn.ToAccountID != nil && (txn.FromAccountID == nil || *txn.ToAccountID != *txn.FromAccountID) {
		ids = append(ids, *txn.ToAccountID)
	}
	if len(ids) == 2 && ids[1].String() < ids[0].String() {
		ids[0], ids[1] = ids[1], ids[0]
	}

	kinds := make(map[uuid.UUID]shared.AccountKind, len(ids))
	for _, id := range ids {
		acc, err := repo.LockForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		kinds[acc.ID] = acc.Kind
	}
	return kinds, nil
}

// ensureDailyRow lazily creates the daily-balance row for the transaction's
// date. The opening carries forward from the previous row's closing; with no
// history at all it falls back to the current aggregate balances, which at
// this point are still untouched by the posting in flight.
func (p *LedgerPosterImpl) ensureDailyRow(ctx context.Context, accountRepo account.Repository, balanceRepo dayops.BalanceRepository, date time.Time) error {
	existing, err := balanceRepo.GetByDate(ctx, date)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	var cashOpening, bankOpening int64
	previous, err := balanceRepo.LatestBefore(ctx, date)
	if err != nil {
		return err
	}
	if previous != nil {
		cashOpening = previous.CashClosing
		bankOpening = previous.BankClosing
	} else {
		cashOpening, bankOpening, err = accountRepo.AggregateByKind(ctx)
		if err != nil {
			return err
		}
	}

	return balanceRepo.Create(ctx, dayops.NewDailyBalance(date, cashOpening, bankOpening))
}
