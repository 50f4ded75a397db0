package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fuelstation-ledger/internal/api/middleware"
	"github.com/fuelstation-ledger/internal/api/service"
	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/dayops"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/domain/transaction"
)

// TransactionHandler handles ledger posting and history endpoints
type TransactionHandler struct {
	logger             *slog.Logger
	transactionService service.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		logger:             logger,
		transactionService: transactionService,
	}
}

// PostTransaction handles the post transaction endpoint
func (h *TransactionHandler) PostTransaction(c *gin.Context) {
	var req PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			RespondBadRequest(c, "Invalid occurred_at, expected RFC 3339 timestamp")
			return
		}
		occurredAt = parsed
	}

	fromID, err := parseOptionalUUID(req.FromAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid from_account_id format")
		return
	}
	toID, err := parseOptionalUUID(req.ToAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid to_account_id format")
		return
	}

	txn := &transaction.Transaction{
		OccurredAt:    occurredAt,
		Kind:          shared.TransactionKind(req.Kind),
		Category:      req.Category,
		Description:   req.Description,
		Amount:        req.Amount,
		FromAccountID: fromID,
		ToAccountID:   toID,
		CreatedBy:     middleware.GetActor(c),
		CreatedAt:     time.Now(),
	}

	if err := h.transactionService.Post(c.Request.Context(), txn); err != nil {
		if errors.Is(err, transaction.ErrInvalidShape) ||
			errors.Is(err, transaction.ErrNonPositiveAmount) ||
			errors.Is(err, transaction.ErrInvalidKind) {
			RespondBadRequest(c, err.Error())
			return
		}
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		if errors.Is(err, dayops.ErrDayNotOpen{}) {
			RespondConflict(c, err.Error())
			return
		}

		h.logger.Error("Failed to post transaction", "error", err, "kind", req.Kind, "category", req.Category)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

// GetTransaction handles the get transaction endpoint
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID format")
		return
	}

	txn, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}

		h.logger.Error("Failed to get transaction", "error", err, "transaction_id", id)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// ListTransactions handles the transaction history endpoint. Each entry
// carries the cash/bank balances reconstructed as of that transaction.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var params TransactionListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := transaction.Filter{
		Limit:  params.PerPage,
		Offset: (params.Page - 1) * params.PerPage,
	}
	if params.AccountID != "" {
		id, err := uuid.Parse(params.AccountID)
		if err != nil {
			RespondBadRequest(c, "Invalid account_id format")
			return
		}
		filter.AccountID = &id
	}
	if params.From != "" {
		from, err := time.Parse("2006-01-02", params.From)
		if err != nil {
			RespondBadRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		filter.From = &from
	}
	if params.To != "" {
		to, err := time.Parse("2006-01-02", params.To)
		if err != nil {
			RespondBadRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		filter.To = &to
	}

	entries, total, err := h.transactionService.History(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list transactions", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]RunningBalanceResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, RunningBalanceResponse{
			TransactionResponse: mapTransactionToResponse(entry.Transaction),
			CashBalance:         entry.CashBalance,
			BankBalance:         entry.BankBalance,
			TotalBalance:        entry.TotalBalance,
		})
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// mapTransactionToResponse maps a domain transaction to an API response
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            txn.ID.String(),
		OccurredAt:    txn.OccurredAt.Format(time.RFC3339),
		Kind:          string(txn.Kind),
		Category:      txn.Category,
		Description:   txn.Description,
		Amount:        txn.Amount,
		FromAccountID: uuidString(txn.FromAccountID),
		ToAccountID:   uuidString(txn.ToAccountID),
		ReferenceKind: string(txn.ReferenceKind),
		ReferenceID:   uuidString(txn.ReferenceID),
		CreatedBy:     txn.CreatedBy,
		CreatedAt:     txn.CreatedAt.Format(time.RFC3339),
	}
}
