package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marco-erp/ledger-core/internal/accounting"
)

// FiscalYearHandler handles fiscal calendar requests
type FiscalYearHandler struct {
	logger  *slog.Logger
	service accounting.FiscalYearService
}

// NewFiscalYearHandler creates a new fiscal year handler
func NewFiscalYearHandler(logger *slog.Logger, service accounting.FiscalYearService) *FiscalYearHandler {
	return &FiscalYearHandler{
		logger:  logger,
		service: service,
	}
}

// CreateFiscalYear handles POST /fiscal-years
func (h *FiscalYearHandler) CreateFiscalYear(c *gin.Context) {
	var req CreateFiscalYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	fy, err := h.service.CreateFiscalYear(c.Request.Context(), req.Year)
	if err != nil {
		h.logger.Warn("Failed to create fiscal year", "year", req.Year, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondCreated(c, mapFiscalYearToResponse(fy))
}

// ActivateFiscalYear handles POST /fiscal-years/:id/activate
func (h *FiscalYearHandler) ActivateFiscalYear(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid fiscal year ID")
		return
	}

	fy, err := h.service.ActivateFiscalYear(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Failed to activate fiscal year", "fiscal_year_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapFiscalYearToResponse(fy))
}

// CloseFiscalYear handles POST /fiscal-years/:id/close
func (h *FiscalYearHandler) CloseFiscalYear(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid fiscal year ID")
		return
	}

	fy, err := h.service.CloseFiscalYear(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Failed to close fiscal year", "fiscal_year_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapFiscalYearToResponse(fy))
}

// LockPeriod handles POST /fiscal-years/:id/periods/:number/lock
func (h *FiscalYearHandler) LockPeriod(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid fiscal year ID")
		return
	}

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		RespondBadRequest(c, "Invalid period number")
		return
	}

	fy, err := h.service.LockPeriod(c.Request.Context(), id, number)
	if err != nil {
		h.logger.Warn("Failed to lock period", "fiscal_year_id", id, "period", number, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapFiscalYearToResponse(fy))
}

// UnlockPeriod handles POST /fiscal-years/:id/periods/:number/unlock
func (h *FiscalYearHandler) UnlockPeriod(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid fiscal year ID")
		return
	}

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		RespondBadRequest(c, "Invalid period number")
		return
	}

	var req UnlockPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	fy, err := h.service.UnlockPeriod(c.Request.Context(), id, number, req.Reason)
	if err != nil {
		h.logger.Warn("Failed to unlock period", "fiscal_year_id", id, "period", number, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapFiscalYearToResponse(fy))
}

// GetFiscalYear handles GET /fiscal-years/:id
func (h *FiscalYearHandler) GetFiscalYear(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid fiscal year ID")
		return
	}

	fy, err := h.service.GetFiscalYear(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapFiscalYearToResponse(fy))
}

// GetActiveFiscalYear handles GET /fiscal-years/active
func (h *FiscalYearHandler) GetActiveFiscalYear(c *gin.Context) {
	fy, err := h.service.GetActiveFiscalYear(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapFiscalYearToResponse(fy))
}

// ListFiscalYears handles GET /fiscal-years
func (h *FiscalYearHandler) ListFiscalYears(c *gin.Context) {
	years, err := h.service.ListFiscalYears(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapFiscalYearsToResponse(years))
}
