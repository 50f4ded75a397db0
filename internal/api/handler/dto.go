package handler

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	Name           string `json:"name" binding:"required"`
	Kind           string `json:"kind" binding:"required,oneof=CASH BANK"`
	OpeningBalance int64  `json:"opening_balance" binding:"min=0"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// PostTransactionRequest represents a request to post a ledger transaction.
// Amounts are in minor units; occurred_at defaults to now.
type PostTransactionRequest struct {
	Kind          string  `json:"kind" binding:"required,oneof=INCOME EXPENSE TRANSFER"`
	Category      string  `json:"category" binding:"required"`
	Description   string  `json:"description,omitempty"`
	Amount        int64   `json:"amount" binding:"required,gt=0"`
	FromAccountID *string `json:"from_account_id,omitempty" binding:"omitempty,uuid"`
	ToAccountID   *string `json:"to_account_id,omitempty" binding:"omitempty,uuid"`
	OccurredAt    string  `json:"occurred_at,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID            string  `json:"id"`
	OccurredAt    string  `json:"occurred_at"`
	Kind          string  `json:"kind"`
	Category      string  `json:"category"`
	Description   string  `json:"description,omitempty"`
	Amount        int64   `json:"amount"`
	FromAccountID *string `json:"from_account_id,omitempty"`
	ToAccountID   *string `json:"to_account_id,omitempty"`
	ReferenceKind string  `json:"reference_kind,omitempty"`
	ReferenceID   *string `json:"reference_id,omitempty"`
	CreatedBy     string  `json:"created_by"`
	CreatedAt     string  `json:"created_at"`
}

// RunningBalanceResponse is a transaction with the reconstructed balances
// as of just after it posted.
type RunningBalanceResponse struct {
	TransactionResponse
	CashBalance  int64 `json:"cash_balance"`
	BankBalance  int64 `json:"bank_balance"`
	TotalBalance int64 `json:"total_balance"`
}

// TransactionListParams narrows transaction history listings
type TransactionListParams struct {
	AccountID string `form:"account_id" binding:"omitempty,uuid"`
	From      string `form:"from,omitempty"`
	To        string `form:"to,omitempty"`
	PaginationParams
}

// DayRequest represents a start-day or close-day request. The cash figure is
// the physically counted drawer amount in minor units.
type DayRequest struct {
	Date        string `json:"date" binding:"required"`
	ActualCash  int64  `json:"actual_cash" binding:"min=0"`
	Explanation string `json:"explanation,omitempty"`
}

// CreateCardTypeRequest represents a request to create a card type
type CreateCardTypeRequest struct {
	Name       string `json:"name" binding:"required"`
	TaxRateBps int64  `json:"tax_rate_bps" binding:"min=0,max=10000"`
}

// UpdateCardTypeRequest represents a request to update a card type
type UpdateCardTypeRequest struct {
	Name       string `json:"name" binding:"required"`
	TaxRateBps int64  `json:"tax_rate_bps" binding:"min=0,max=10000"`
	Active     *bool  `json:"active" binding:"required"`
}

// CardTypeResponse represents a card type in API responses
type CardTypeResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TaxRateBps int64  `json:"tax_rate_bps"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// RecordCardSaleRequest represents a request to record a card sale on hold
type RecordCardSaleRequest struct {
	CardTypeID  string `json:"card_type_id" binding:"required,uuid"`
	GrossAmount int64  `json:"gross_amount" binding:"required,gt=0"`
	PaymentDate string `json:"payment_date,omitempty"`
}

// SettleCardPaymentRequest represents a request to settle a held payment
type SettleCardPaymentRequest struct {
	DestinationAccountID *string `json:"destination_account_id" binding:"omitempty,uuid"`
	Note                 string  `json:"note,omitempty"`
}

// CardPaymentResponse represents a card payment in API responses
type CardPaymentResponse struct {
	ID                  string  `json:"id"`
	PaymentDate         string  `json:"payment_date"`
	CardTypeID          string  `json:"card_type_id"`
	Amount              int64   `json:"amount"`
	TaxRateBps          int64   `json:"tax_rate_bps"`
	TaxAmount           int64   `json:"tax_amount"`
	NetAmount           int64   `json:"net_amount"`
	Status              string  `json:"status"`
	ReceivedAt          string  `json:"received_at,omitempty"`
	SettlementAccountID *string `json:"settlement_account_id,omitempty"`
	CreatedBy           string  `json:"created_by"`
	CreatedAt           string  `json:"created_at"`
}

// CardPaymentListParams narrows card payment listings
type CardPaymentListParams struct {
	Status string `form:"status" binding:"omitempty,oneof=HOLD RECEIVED"`
	PaginationParams
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}
