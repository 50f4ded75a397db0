package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fuelstation-ledger/internal/api/middleware"
	"github.com/fuelstation-ledger/internal/api/service"
	"github.com/fuelstation-ledger/internal/domain/dayops"
)

const dateLayout = "2006-01-02"

// DayOpsHandler handles the daily open/close lifecycle endpoints
type DayOpsHandler struct {
	logger     *slog.Logger
	dayService service.DayService
}

// NewDayOpsHandler creates a new day operations handler
func NewDayOpsHandler(logger *slog.Logger, dayService service.DayService) *DayOpsHandler {
	return &DayOpsHandler{
		logger:     logger,
		dayService: dayService,
	}
}

// StartDay handles the start day endpoint
func (h *DayOpsHandler) StartDay(c *gin.Context) {
	var req DayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		RespondBadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	actor := middleware.GetActor(c)

	op, err := h.dayService.StartDay(c.Request.Context(), date, req.ActualCash, req.Explanation, actor)
	if err != nil {
		if errors.Is(err, dayops.ErrExplanationRequired) {
			RespondBadRequest(c, err.Error())
			return
		}
		if errors.Is(err, dayops.ErrDayAlreadyStarted{}) || errors.Is(err, dayops.ErrDuplicateDateRow{}) {
			RespondConflict(c, err.Error())
			return
		}

		h.logger.Error("Failed to start day", "error", err, "date", req.Date)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapOperationToResponse(op))
}

// CloseDay handles the close day endpoint
func (h *DayOpsHandler) CloseDay(c *gin.Context) {
	var req DayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		RespondBadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	actor := middleware.GetActor(c)

	op, err := h.dayService.CloseDay(c.Request.Context(), date, req.ActualCash, req.Explanation, actor)
	if err != nil {
		if errors.Is(err, dayops.ErrExplanationRequired) {
			RespondBadRequest(c, err.Error())
			return
		}
		if errors.Is(err, dayops.ErrOperationNotFound{}) {
			RespondNotFound(c, "Day was never started")
			return
		}
		if errors.Is(err, dayops.ErrDayNotOpen{}) {
			RespondConflict(c, err.Error())
			return
		}

		h.logger.Error("Failed to close day", "error", err, "date", req.Date)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapOperationToResponse(op))
}

// GetDay handles the day status endpoint
func (h *DayOpsHandler) GetDay(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		RespondBadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	view, err := h.dayService.GetDay(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, dayops.ErrOperationNotFound{}) {
			RespondNotFound(c, "Day was never started")
			return
		}

		h.logger.Error("Failed to get day", "error", err, "date", c.Param("date"))
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapDayViewToResponse(view))
}

// DayOperationResponse represents a daily workflow row in API responses
type DayOperationResponse struct {
	ID                  int64  `json:"id"`
	OperationDate       string `json:"operation_date"`
	Status              string `json:"status"`
	DayLocked           bool   `json:"day_locked"`
	OpeningCashActual   int64  `json:"opening_cash_actual"`
	OpeningCashVariance int64  `json:"opening_cash_variance"`
	ClosingCashActual   *int64 `json:"closing_cash_actual,omitempty"`
	ClosingCashVariance *int64 `json:"closing_cash_variance,omitempty"`
	TotalSales          int64  `json:"total_sales"`
	TotalExpenses       int64  `json:"total_expenses"`
	OpenedBy            string `json:"opened_by"`
	OpenedAt            string `json:"opened_at"`
	ClosedBy            string `json:"closed_by,omitempty"`
	ClosedAt            string `json:"closed_at,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// DayBalanceResponse represents a daily balance row in API responses
type DayBalanceResponse struct {
	BalanceDate string `json:"balance_date"`
	CashOpening int64  `json:"cash_opening"`
	CashClosing int64  `json:"cash_closing"`
	BankOpening int64  `json:"bank_opening"`
	BankClosing int64  `json:"bank_closing"`
	IsClosed    bool   `json:"is_closed"`
	ClosedBy    string `json:"closed_by,omitempty"`
	ClosedAt    string `json:"closed_at,omitempty"`
}

// VarianceResponse represents a variance log entry in API responses
type VarianceResponse struct {
	ID             int64  `json:"id"`
	VarianceDate   string `json:"variance_date"`
	VarianceType   string `json:"variance_type"`
	ExpectedAmount int64  `json:"expected_amount"`
	ActualAmount   int64  `json:"actual_amount"`
	Difference     int64  `json:"difference"`
	Explanation    string `json:"explanation,omitempty"`
	ReportedBy     string `json:"reported_by"`
	CreatedAt      string `json:"created_at"`
}

// DayViewResponse bundles the workflow, balance and variance records for a date
type DayViewResponse struct {
	Operation DayOperationResponse `json:"operation"`
	Balance   *DayBalanceResponse  `json:"balance,omitempty"`
	Variances []VarianceResponse   `json:"variances"`
}

func mapOperationToResponse(op *dayops.DailyOperation) DayOperationResponse {
	resp := DayOperationResponse{
		ID:                  op.ID,
		OperationDate:       op.OperationDate.Format(dateLayout),
		Status:              string(op.Status),
		DayLocked:           op.DayLocked,
		OpeningCashActual:   op.OpeningCashActual,
		OpeningCashVariance: op.OpeningCashVariance,
		ClosingCashActual:   op.ClosingCashActual,
		ClosingCashVariance: op.ClosingCashVariance,
		TotalSales:          op.TotalSales,
		TotalExpenses:       op.TotalExpenses,
		OpenedBy:            op.OpenedBy,
		OpenedAt:            op.OpenedAt.Format(time.RFC3339),
		ClosedBy:            op.ClosedBy,
		Notes:               op.Notes,
	}
	if op.ClosedAt != nil {
		resp.ClosedAt = op.ClosedAt.Format(time.RFC3339)
	}
	return resp
}

func mapDayViewToResponse(view *service.DayView) DayViewResponse {
	resp := DayViewResponse{
		Operation: mapOperationToResponse(view.Operation),
		Variances: make([]VarianceResponse, 0, len(view.Variances)),
	}

	if view.Balance != nil {
		balance := &DayBalanceResponse{
			BalanceDate: view.Balance.BalanceDate.Format(dateLayout),
			CashOpening: view.Balance.CashOpening,
			CashClosing: view.Balance.CashClosing,
			BankOpening: view.Balance.BankOpening,
			BankClosing: view.Balance.BankClosing,
			IsClosed:    view.Balance.IsClosed,
			ClosedBy:    view.Balance.ClosedBy,
		}
		if view.Balance.ClosedAt != nil {
			balance.ClosedAt = view.Balance.ClosedAt.Format(time.RFC3339)
		}
		resp.Balance = balance
	}

	for _, v := range view.Variances {
		resp.Variances = append(resp.Variances, VarianceResponse{
			ID:             v.ID,
			VarianceDate:   v.VarianceDate.Format(dateLayout),
			VarianceType:   string(v.VarianceType),
			ExpectedAmount: v.ExpectedAmount,
			ActualAmount:   v.ActualAmount,
			Difference:     v.Difference,
			Explanation:    v.Explanation,
			ReportedBy:     v.ReportedBy,
			CreatedAt:      v.CreatedAt.Format(time.RFC3339),
		})
	}

	return resp
}
