package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fuelstation-ledger/internal/api/middleware"
	"github.com/fuelstation-ledger/internal/api/service"
	"github.com/fuelstation-ledger/internal/domain/account"
	"github.com/fuelstation-ledger/internal/domain/shared"
)

// AccountHandler handles account-related API endpoints
type AccountHandler struct {
	logger         *slog.Logger
	accountService service.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		logger:         logger,
		accountService: accountService,
	}
}

// CreateAccount handles the create account endpoint
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	actor := middleware.GetActor(c)

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.Name, shared.AccountKind(req.Kind), req.OpeningBalance, actor)
	if err != nil {
		var dupErr account.ErrDuplicateName
		if errors.As(err, &dupErr) {
			RespondConflict(c, dupErr.Error())
			return
		}
		if errors.Is(err, account.ErrEmptyName) || errors.Is(err, account.ErrInvalidKind) {
			RespondBadRequest(c, err.Error())
			return
		}

		h.logger.Error("Failed to create account", "error", err, "name", req.Name)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetAccount handles the get account endpoint
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID format")
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}

		h.logger.Error("Failed to get account", "error", err, "account_id", id)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ListAccounts handles the list accounts endpoint
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list accounts", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}

	RespondOK(c, responses)
}

// mapAccountToResponse maps a domain account to an API response
func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		Name:      acc.Name,
		Kind:      string(acc.Kind),
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}
