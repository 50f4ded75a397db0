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
	"github.com/fuelstation-ledger/internal/domain/cardpayment"
	"github.com/fuelstation-ledger/internal/domain/shared"
)

// CardHandler handles card type configuration and the hold/settle payment
// workflow endpoints.
type CardHandler struct {
	logger      *slog.Logger
	cardService service.CardService
}

// NewCardHandler creates a new card handler
func NewCardHandler(logger *slog.Logger, cardService service.CardService) *CardHandler {
	return &CardHandler{
		logger:      logger,
		cardService: cardService,
	}
}

// CreateCardType handles the create card type endpoint
func (h *CardHandler) CreateCardType(c *gin.Context) {
	var req CreateCardTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	cardType, err := h.cardService.CreateCardType(c.Request.Context(), req.Name, req.TaxRateBps)
	if err != nil {
		if errors.Is(err, cardpayment.ErrEmptyName) || errors.Is(err, cardpayment.ErrInvalidTaxRate) {
			RespondBadRequest(c, err.Error())
			return
		}

		h.logger.Error("Failed to create card type", "error", err, "name", req.Name)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapCardTypeToResponse(cardType))
}

// UpdateCardType handles the update card type endpoint
func (h *CardHandler) UpdateCardType(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid card type ID format")
		return
	}

	var req UpdateCardTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	cardType, err := h.cardService.UpdateCardType(c.Request.Context(), id, req.Name, req.TaxRateBps, *req.Active)
	if err != nil {
		if errors.Is(err, cardpayment.ErrCardTypeNotFound{}) {
			RespondNotFound(c, "Card type not found")
			return
		}
		if errors.Is(err, cardpayment.ErrEmptyName) || errors.Is(err, cardpayment.ErrInvalidTaxRate) {
			RespondBadRequest(c, err.Error())
			return
		}

		h.logger.Error("Failed to update card type", "error", err, "card_type_id", id)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapCardTypeToResponse(cardType))
}

// ListCardTypes handles the list card types endpoint
func (h *CardHandler) ListCardTypes(c *gin.Context) {
	cardTypes, err := h.cardService.ListCardTypes(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list card types", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]CardTypeResponse, 0, len(cardTypes))
	for _, ct := range cardTypes {
		responses = append(responses, mapCardTypeToResponse(ct))
	}

	RespondOK(c, responses)
}

// RecordSale handles the record card sale endpoint
func (h *CardHandler) RecordSale(c *gin.Context) {
	var req RecordCardSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	cardTypeID, err := uuid.Parse(req.CardTypeID)
	if err != nil {
		RespondBadRequest(c, "Invalid card_type_id format")
		return
	}

	paymentDate := time.Now()
	if req.PaymentDate != "" {
		parsed, err := time.Parse(dateLayout, req.PaymentDate)
		if err != nil {
			RespondBadRequest(c, "Invalid payment_date, expected YYYY-MM-DD")
			return
		}
		paymentDate = parsed
	}

	actor := middleware.GetActor(c)

	payment, err := h.cardService.RecordSale(c.Request.Context(), cardTypeID, req.GrossAmount, paymentDate, actor)
	if err != nil {
		if errors.Is(err, cardpayment.ErrCardTypeNotFound{}) {
			RespondNotFound(c, "Card type not found")
			return
		}
		var inactiveErr cardpayment.ErrCardTypeInactive
		if errors.As(err, &inactiveErr) {
			RespondConflict(c, inactiveErr.Error())
			return
		}
		if errors.Is(err, cardpayment.ErrNonPositiveAmount) {
			RespondBadRequest(c, err.Error())
			return
		}

		h.logger.Error("Failed to record card sale", "error", err, "card_type_id", cardTypeID)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapCardPaymentToResponse(payment))
}

// ListPayments handles the list card payments endpoint
func (h *CardHandler) ListPayments(c *gin.Context) {
	var params CardPaymentListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	payments, total, err := h.cardService.ListPayments(
		c.Request.Context(),
		shared.CardPaymentStatus(params.Status),
		params.PerPage,
		(params.Page-1)*params.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to list card payments", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]CardPaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, mapCardPaymentToResponse(p))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

// SettlePayment handles the settle card payment endpoint
func (h *CardHandler) SettlePayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid payment ID format")
		return
	}

	var req SettleCardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	destID, err := parseOptionalUUID(req.DestinationAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid destination_account_id format")
		return
	}

	actor := middleware.GetActor(c)

	payment, err := h.cardService.Settle(c.Request.Context(), paymentID, destID, req.Note, actor, nil)
	if err != nil {
		if errors.Is(err, cardpayment.ErrDestinationRequired) {
			RespondBadRequest(c, err.Error())
			return
		}
		if errors.Is(err, cardpayment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Card payment not found")
			return
		}
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Destination account not found")
			return
		}
		if errors.Is(err, cardpayment.ErrAlreadySettled{}) {
			RespondConflict(c, err.Error())
			return
		}

		h.logger.Error("Failed to settle card payment", "error", err, "payment_id", paymentID)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapCardPaymentToResponse(payment))
}

// mapCardTypeToResponse maps a domain card type to an API response
func mapCardTypeToResponse(ct *cardpayment.CardType) CardTypeResponse {
	return CardTypeResponse{
		ID:         ct.ID.String(),
		Name:       ct.Name,
		TaxRateBps: ct.TaxRateBps,
		Active:     ct.Active,
		CreatedAt:  ct.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  ct.UpdatedAt.Format(time.RFC3339),
	}
}

// mapCardPaymentToResponse maps a domain card payment to an API response
func mapCardPaymentToResponse(p *cardpayment.CardPayment) CardPaymentResponse {
	resp := CardPaymentResponse{
		ID:                  p.ID.String(),
		PaymentDate:         p.PaymentDate.Format(dateLayout),
		CardTypeID:          p.CardTypeID.String(),
		Amount:              p.Amount,
		TaxRateBps:          p.TaxRateBps,
		TaxAmount:           p.TaxAmount,
		NetAmount:           p.NetAmount,
		Status:              string(p.Status),
		SettlementAccountID: uuidString(p.SettlementAccountID),
		CreatedBy:           p.CreatedBy,
		CreatedAt:           p.CreatedAt.Format(time.RFC3339),
	}
	if p.ReceivedAt != nil {
		resp.ReceivedAt = p.ReceivedAt.Format(time.RFC3339)
	}
	return resp
}
