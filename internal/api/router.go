package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fuelstation-ledger/internal/api/handler"
	"github.com/fuelstation-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	dayOpsHandler *handler.DayOpsHandler,
	cardHandler *handler.CardHandler,
	reconciliationHandler *handler.ReconciliationHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Identity())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.CreateAccount)
			accounts.GET("", accountHandler.ListAccounts)
			accounts.GET("/:id", accountHandler.GetAccount)
		}

		// Ledger posting and history
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.PostTransaction)
			transactions.GET("", transactionHandler.ListTransactions)
			transactions.GET("/:id", transactionHandler.GetTransaction)
		}

		// Daily open/close lifecycle
		days := v1.Group("/days")
		{
			days.POST("/start", dayOpsHandler.StartDay)
			days.POST("/close", dayOpsHandler.CloseDay)
			days.GET("/:date", dayOpsHandler.GetDay)
		}

		// Card type configuration
		cardTypes := v1.Group("/card-types")
		{
			cardTypes.POST("", cardHandler.CreateCardType)
			cardTypes.GET("", cardHandler.ListCardTypes)
			cardTypes.PUT("/:id", cardHandler.UpdateCardType)
		}

		// Card payment hold/settle workflow
		cardPayments := v1.Group("/card-payments")
		{
			cardPayments.POST("", cardHandler.RecordSale)
			cardPayments.GET("", cardHandler.ListPayments)
			cardPayments.POST("/:id/settle", cardHandler.SettlePayment)
		}

		// Balance drift checks
		v1.POST("/reconciliation/run", reconciliationHandler.Run)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
