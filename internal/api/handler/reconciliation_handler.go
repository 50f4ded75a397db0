package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/fuelstation-ledger/internal/api/service"
)

// ReconciliationHandler handles the balance drift check endpoint
type ReconciliationHandler struct {
	logger                *slog.Logger
	reconciliationService service.ReconciliationService
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		logger:                logger,
		reconciliationService: reconciliationService,
	}
}

// DriftReportResponse summarizes one reconciliation run
type DriftReportResponse struct {
	Clean  bool            `json:"clean"`
	Drifts []DriftResponse `json:"drifts"`
}

// DriftResponse represents one account whose stored balance does not match
// the balance implied by its transaction history.
type DriftResponse struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Kind        string `json:"kind"`
	Stored      int64  `json:"stored"`
	Implied     int64  `json:"implied"`
	Drift       int64  `json:"drift"`
}

// Run handles the reconciliation run endpoint. Findings are reported, never
// auto-corrected.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	drifts, err := h.reconciliationService.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Reconciliation run failed", "error", err)
		RespondInternalError(c)
		return
	}

	report := DriftReportResponse{
		Clean:  len(drifts) == 0,
		Drifts: make([]DriftResponse, 0, len(drifts)),
	}
	for _, d := range drifts {
		report.Drifts = append(report.Drifts, DriftResponse{
			AccountID:   d.AccountID.String(),
			AccountName: d.AccountName,
			Kind:        string(d.Kind),
			Stored:      d.Stored,
			Implied:     d.Implied,
			Drift:       d.Drift,
		})
	}

	RespondOK(c, report)
}
