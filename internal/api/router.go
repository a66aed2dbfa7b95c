package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marco-erp/ledger-core/internal/accounting"
	"github.com/marco-erp/ledger-core/internal/api/handler"
	"github.com/marco-erp/ledger-core/internal/api/middleware"
)

// setupRouter configures the gin router with middleware and routes
func setupRouter(
	logger *slog.Logger,
	accountService accounting.AccountService,
	fiscalYearService accounting.FiscalYearService,
	journalService accounting.JournalService,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CorrelationID())

	accountHandler := handler.NewAccountHandler(logger, accountService)
	fiscalYearHandler := handler.NewFiscalYearHandler(logger, fiscalYearService)
	journalHandler := handler.NewJournalHandler(logger, journalService)

	v1 := router.Group("/api/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.CreateAccount)
			accounts.GET("", accountHandler.ListAccounts)
			accounts.GET("/tree", accountHandler.GetAccountTree)
			accounts.GET("/postable", accountHandler.ListPostableAccounts)
			accounts.GET("/code/:code", accountHandler.GetAccountByCode)
			accounts.GET("/:id", accountHandler.GetAccount)
			accounts.PUT("/:id", accountHandler.UpdateAccount)
			accounts.PATCH("/:id/type", accountHandler.ChangeAccountType)
			accounts.POST("/:id/activate", accountHandler.ActivateAccount)
			accounts.POST("/:id/deactivate", accountHandler.DeactivateAccount)
			accounts.DELETE("/:id", accountHandler.DeleteAccount)
		}

		fiscalYears := v1.Group("/fiscal-years")
		{
			fiscalYears.POST("", fiscalYearHandler.CreateFiscalYear)
			fiscalYears.GET("", fiscalYearHandler.ListFiscalYears)
			fiscalYears.GET("/active", fiscalYearHandler.GetActiveFiscalYear)
			fiscalYears.GET("/:id", fiscalYearHandler.GetFiscalYear)
			fiscalYears.POST("/:id/activate", fiscalYearHandler.ActivateFiscalYear)
			fiscalYears.POST("/:id/close", fiscalYearHandler.CloseFiscalYear)
			fiscalYears.POST("/:id/periods/:number/lock", fiscalYearHandler.LockPeriod)
			fiscalYears.POST("/:id/periods/:number/unlock", fiscalYearHandler.UnlockPeriod)
		}

		journalEntries := v1.Group("/journal-entries")
		{
			journalEntries.POST("", journalHandler.CreateJournalEntry)
			journalEntries.GET("", journalHandler.ListJournalEntries)
			journalEntries.GET("/:id", journalHandler.GetJournalEntry)
			journalEntries.PUT("/:id", journalHandler.UpdateJournalEntry)
			journalEntries.DELETE("/:id", journalHandler.DeleteJournalEntry)
			journalEntries.POST("/:id/post", journalHandler.PostJournalEntry)
			journalEntries.POST("/:id/reverse", journalHandler.ReverseJournalEntry)
			journalEntries.POST("/:id/adjustments", journalHandler.CreateAdjustment)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "UP",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	return router
}
