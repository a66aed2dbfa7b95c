package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marco-erp/ledger-core/internal/accounting"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// JournalHandler handles journal entry lifecycle requests
type JournalHandler struct {
	logger  *slog.Logger
	service accounting.JournalService
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(logger *slog.Logger, service accounting.JournalService) *JournalHandler {
	return &JournalHandler{
		logger:  logger,
		service: service,
	}
}

// CreateJournalEntry handles POST /journal-entries
func (h *JournalHandler) CreateJournalEntry(c *gin.Context) {
	var req CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	input, ok := h.buildCreateInput(c, req)
	if !ok {
		return
	}

	entry, err := h.service.CreateDraft(c.Request.Context(), input)
	if err != nil {
		h.logger.Warn("Failed to create journal entry", "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondCreated(c, mapJournalEntryToResponse(entry))
}

// CreateAdjustment handles POST /journal-entries/:id/adjustments
func (h *JournalHandler) CreateAdjustment(c *gin.Context) {
	adjustedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid journal entry ID")
		return
	}

	var req CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	input, ok := h.buildCreateInput(c, req)
	if !ok {
		return
	}

	entry, err := h.service.CreateAdjustment(c.Request.Context(), adjustedID, input)
	if err != nil {
		h.logger.Warn("Failed to create adjustment", "adjusted_entry_id", adjustedID, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondCreated(c, mapJournalEntryToResponse(entry))
}

// UpdateJournalEntry handles PUT /journal-entries/:id
func (h *JournalHandler) UpdateJournalEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid journal entry ID")
		return
	}

	var req UpdateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	lines, ok := h.buildLineInputs(c, req.Lines)
	if !ok {
		return
	}

	entry, err := h.service.UpdateDraft(c.Request.Context(), id, accounting.UpdateJournalEntryInput{
		JournalDate:     req.JournalDate,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		CostCenter:      req.CostCenter,
		Lines:           lines,
	})
	if err != nil {
		h.logger.Warn("Failed to update journal entry", "entry_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapJournalEntryToResponse(entry))
}

// DeleteJournalEntry handles DELETE /journal-entries/:id
func (h *JournalHandler) DeleteJournalEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid journal entry ID")
		return
	}

	if err := h.service.DeleteDraft(c.Request.Context(), id); err != nil {
		h.logger.Warn("Failed to delete journal entry", "entry_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondNoContent(c)
}

// PostJournalEntry handles POST /journal-entries/:id/post
func (h *JournalHandler) PostJournalEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid journal entry ID")
		return
	}

	entry, err := h.service.PostEntry(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Failed to post journal entry", "entry_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapJournalEntryToResponse(entry))
}

// ReverseJournalEntry handles POST /journal-entries/:id/reverse
func (h *JournalHandler) ReverseJournalEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid journal entry ID")
		return
	}

	var req ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	entry, err := h.service.ReverseEntry(c.Request.Context(), id, req.ReversalDate, req.Reason)
	if err != nil {
		h.logger.Warn("Failed to reverse journal entry", "entry_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondCreated(c, mapJournalEntryToResponse(entry))
}

// GetJournalEntry handles GET /journal-entries/:id
func (h *JournalHandler) GetJournalEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid journal entry ID")
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapJournalEntryToResponse(entry))
}

// ListJournalEntries handles GET /journal-entries. Callers filter either by
// fiscal period, or by fiscal year and status.
func (h *JournalHandler) ListJournalEntries(c *gin.Context) {
	if periodID := c.Query("period_id"); periodID != "" {
		id, err := uuid.Parse(periodID)
		if err != nil {
			RespondBadRequest(c, "Invalid fiscal period ID")
			return
		}
		entries, err := h.service.ListByPeriod(c.Request.Context(), id)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, mapJournalEntriesToResponse(entries))
		return
	}

	yearID, err := uuid.Parse(c.Query("fiscal_year_id"))
	if err != nil {
		RespondBadRequest(c, "Either period_id or fiscal_year_id is required")
		return
	}
	status := c.Query("status")
	if status == "" {
		RespondBadRequest(c, "status is required when filtering by fiscal year")
		return
	}

	entries, err := h.service.ListByStatus(c.Request.Context(), yearID, journal.Status(status))
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapJournalEntriesToResponse(entries))
}

func (h *JournalHandler) buildCreateInput(c *gin.Context, req CreateJournalEntryRequest) (accounting.CreateJournalEntryInput, bool) {
	lines, ok := h.buildLineInputs(c, req.Lines)
	if !ok {
		return accounting.CreateJournalEntryInput{}, false
	}

	source := shared.SourceType(req.Source)
	if req.Source == "" {
		source = shared.SourceTypeManual
	}

	input := accounting.CreateJournalEntryInput{
		JournalDate:     req.JournalDate,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		Source:          source,
		CostCenter:      req.CostCenter,
		Lines:           lines,
	}
	if req.SourceID != "" {
		sourceID, err := uuid.Parse(req.SourceID)
		if err != nil {
			RespondBadRequest(c, "Invalid source ID")
			return accounting.CreateJournalEntryInput{}, false
		}
		input.SourceID = &sourceID
	}
	return input, true
}

func (h *JournalHandler) buildLineInputs(c *gin.Context, lines []JournalLineRequest) ([]accounting.JournalLineInput, bool) {
	out := make([]accounting.JournalLineInput, 0, len(lines))
	for _, line := range lines {
		accountID, err := uuid.Parse(line.AccountID)
		if err != nil {
			RespondBadRequest(c, "Invalid account ID on journal line")
			return nil, false
		}
		out = append(out, accounting.JournalLineInput{
			AccountID:   accountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
			CostCenter:  line.CostCenter,
			Location:    line.Location,
		})
	}
	return out, true
}
