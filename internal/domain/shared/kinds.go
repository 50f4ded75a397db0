package shared

// AccountKind distinguishes the physical cash drawer from bank accounts
type AccountKind string

const (
	AccountKindCash AccountKind = "CASH"
	AccountKindBank AccountKind = "BANK"
)

// Valid reports whether the kind is one of the known account kinds
func (k AccountKind) Valid() bool {
	return k == AccountKindCash || k == AccountKindBank
}

// TransactionKind defines the three balance-affecting operations
type TransactionKind string

const (
	TransactionKindIncome   TransactionKind = "INCOME"
	TransactionKindExpense  TransactionKind = "EXPENSE"
	TransactionKindTransfer TransactionKind = "TRANSFER"
)

func (k TransactionKind) Valid() bool {
	return k == TransactionKindIncome || k == TransactionKindExpense || k == TransactionKindTransfer
}

// DayStatus defines the daily operation lifecycle states
type DayStatus string

const (
	DayStatusNotStarted DayStatus = "NOT_STARTED"
	DayStatusOpen       DayStatus = "OPEN"
	DayStatusClosed     DayStatus = "CLOSED"
)

// CardPaymentStatus defines the two receivable states of a card payment
type CardPaymentStatus string

const (
	CardPaymentStatusHold     CardPaymentStatus = "HOLD"
	CardPaymentStatusReceived CardPaymentStatus = "RECEIVED"
)

// VarianceType identifies which cash count produced a variance log entry
type VarianceType string

const (
	VarianceTypeOpeningCash VarianceType = "OPENING_CASH"
	VarianceTypeClosingCash VarianceType = "CLOSING_CASH"
)

// ReferenceKind links a transaction to its originating business event
type ReferenceKind string

const (
	ReferenceKindCardPayment ReferenceKind = "card_payments"
	ReferenceKindSale        ReferenceKind = "sales"
	ReferenceKindPurchase    ReferenceKind = "purchases"
)

// OutboxStatus defines audit message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
