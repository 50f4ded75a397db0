package service

import (
	"context"
	"time"

	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/cardpayment"
	"github.com/fuelstation-ledger/internal/domain/dayops"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerPoster applies one transaction inside an already-open database
// transaction: shape validation, account locking, daily-row maintenance,
// balance adjustment and the audit outbox write. It is the only code path
// that writes account balances.
type LedgerPoster interface {
	Apply(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) error
}

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount creates a new account. A non-zero opening balance is
	// posted as an opening income transaction, not seeded into the field.
	// Returns ErrDuplicateName if an account with the same name exists.
	CreateAccount(ctx context.Context, name string, kind shared.AccountKind, openingBalance int64, actor string) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// ListAccounts returns all accounts with their stored balances
	ListAccounts(ctx context.Context) ([]*account.Account, error)
}

// TransactionService defines the interface for ledger posting and queries
type TransactionService interface {
	// Post atomically records the transaction and adjusts the referenced
	// account balances and the date's daily-balance row.
	Post(ctx context.Context, txn *transaction.Transaction) error

	// GetTransactionByID retrieves a transaction by its ID
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)

	// History returns transactions newest-first with the running cash/bank
	// balances reconstructed as of each entry, plus the total match count.
	History(ctx context.Context, filter transaction.Filter) ([]*RunningBalanceEntry, int64, error)
}

// DayView bundles the workflow row with the date's balance snapshot
type DayView struct {
	Operation *dayops.DailyOperation     `json:"operation"`
	Balance   *dayops.DailyBalance       `json:"balance,omitempty"`
	Variances []*dayops.VarianceLogEntry `json:"variances,omitempty"`
}

// DayService defines the interface for the daily open/close lifecycle
type DayService interface {
	// StartDay opens the date after rolling over any unclosed backlog.
	// Returns ErrDayAlreadyStarted on a duplicate start and
	// ErrExplanationRequired when the opening count breaches tolerance
	// without a written explanation.
	StartDay(ctx context.Context, date time.Time, actualCash int64, explanation, actor string) (*dayops.DailyOperation, error)

	// CloseDay closes an open date with the counted cash.
	// Returns ErrDayNotOpen unless the date's status is OPEN.
	CloseDay(ctx context.Context, date time.Time, actualCash int64, explanation, actor string) (*dayops.DailyOperation, error)

	// GetDay returns the workflow row, balance row and variance entries for
	// a date. Returns ErrOperationNotFound when the day was never started.
	GetDay(ctx context.Context, date time.Time) (*DayView, error)
}

// CardService defines the interface for card type configuration and the
// hold/settle payment workflow.
type CardService interface {
	CreateCardType(ctx context.Context, name string, taxRateBps int64) (*cardpayment.CardType, error)
	UpdateCardType(ctx context.Context, id uuid.UUID, name string, taxRateBps int64, active bool) (*cardpayment.CardType, error)
	ListCardTypes(ctx context.Context) ([]*cardpayment.CardType, error)

	// RecordSale records a card payment on hold, capturing the card type's
	// current tax rate.
	RecordSale(ctx context.Context, cardTypeID uuid.UUID, grossAmount int64, date time.Time, actor string) (*cardpayment.CardPayment, error)

	// ListPayments returns payments newest-first, optionally filtered by status
	ListPayments(ctx context.Context, status shared.CardPaymentStatus, limit, offset int) ([]*cardpayment.CardPayment, int64, error)

	// Settle receives a held payment into the destination account: a net
	// transfer and, when tax was withheld, a commission expense are posted in
	// the same database transaction that flips the payment to RECEIVED.
	// The optional linked callback runs inside that transaction.
	// Returns ErrAlreadySettled when the payment is no longer on hold.
	Settle(ctx context.Context, paymentID uuid.UUID, destinationAccountID *uuid.UUID, note, actor string, linked LinkedRecordFunc) (*cardpayment.CardPayment, error)
}

// LinkedRecordFunc lets a caller piggyback extra writes onto the settlement
// unit of work.
type LinkedRecordFunc func(ctx context.Context, tx pgx.Tx) error

// Drift is one reconciliation finding: a stored balance that does not match
// the balance implied by the account's transaction history.
type Drift struct {
	AccountID   uuid.UUID          `json:"account_id"`
	AccountName string             `json:"account_name"`
	Kind        shared.AccountKind `json:"kind"`
	Stored      int64              `json:"stored"`
	Implied     int64              `json:"implied"`
	Drift       int64              `json:"drift"`
}

// ReconciliationService checks every stored balance against the transaction
// log. Findings are reported, never auto-corrected.
type ReconciliationService interface {
	Run(ctx context.Context) ([]*Drift, error)
	Shutdown()
}
