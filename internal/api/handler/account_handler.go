package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marco-erp/ledger-core/internal/accounting"
	"github.com/marco-erp/ledger-core/internal/domain/account"
)

// AccountHandler handles chart-of-accounts requests
type AccountHandler struct {
	logger  *slog.Logger
	service accounting.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, service accounting.AccountService) *AccountHandler {
	return &AccountHandler{
		logger:  logger,
		service: service,
	}
}

// CreateAccount handles POST /accounts
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	input := accounting.CreateAccountInput{
		Code:        req.Code,
		NameAr:      req.NameAr,
		NameEn:      req.NameEn,
		Type:        account.Type(req.Type),
		IsSystem:    req.IsSystem,
		Description: req.Description,
	}
	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			RespondBadRequest(c, "Invalid parent account ID")
			return
		}
		input.ParentID = &parentID
	}

	acc, err := h.service.CreateAccount(c.Request.Context(), input)
	if err != nil {
		h.logger.Warn("Failed to create account", "code", req.Code, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// UpdateAccount handles PUT /accounts/:id
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	acc, err := h.service.UpdateAccount(c.Request.Context(), id, accounting.UpdateAccountInput{
		NameAr:      req.NameAr,
		NameEn:      req.NameEn,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Warn("Failed to update account", "account_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ChangeAccountType handles PATCH /accounts/:id/type
func (h *AccountHandler) ChangeAccountType(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var req ChangeAccountTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	acc, err := h.service.ChangeAccountType(c.Request.Context(), id, account.Type(req.Type))
	if err != nil {
		h.logger.Warn("Failed to change account type", "account_id", id, "new_type", req.Type, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ActivateAccount handles POST /accounts/:id/activate
func (h *AccountHandler) ActivateAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	if err := h.service.ActivateAccount(c.Request.Context(), id); err != nil {
		h.logger.Warn("Failed to activate account", "account_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondNoContent(c)
}

// DeactivateAccount handles POST /accounts/:id/deactivate
func (h *AccountHandler) DeactivateAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	if err := h.service.DeactivateAccount(c.Request.Context(), id); err != nil {
		h.logger.Warn("Failed to deactivate account", "account_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondNoContent(c)
}

// DeleteAccount handles DELETE /accounts/:id
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), id); err != nil {
		h.logger.Warn("Failed to delete account", "account_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondNoContent(c)
}

// GetAccount handles GET /accounts/:id
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	acc, err := h.service.GetAccount(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetAccountByCode handles GET /accounts/code/:code
func (h *AccountHandler) GetAccountByCode(c *gin.Context) {
	acc, err := h.service.GetAccountByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ListAccounts handles GET /accounts. An optional type query parameter
// narrows the listing to one classification.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	if accountType := c.Query("type"); accountType != "" {
		accounts, err := h.service.ListAccountsByType(c.Request.Context(), account.Type(accountType))
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, mapAccountsToResponse(accounts))
		return
	}

	accounts, err := h.service.ListAccounts(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapAccountsToResponse(accounts))
}

// ListPostableAccounts handles GET /accounts/postable
func (h *AccountHandler) ListPostableAccounts(c *gin.Context) {
	accounts, err := h.service.ListPostableAccounts(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapAccountsToResponse(accounts))
}

// GetAccountTree handles GET /accounts/tree
func (h *AccountHandler) GetAccountTree(c *gin.Context) {
	tree, err := h.service.GetAccountTree(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapAccountTreeToResponse(tree))
}
