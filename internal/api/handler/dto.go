package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marco-erp/ledger-core/internal/accounting"
	"github.com/marco-erp/ledger-core/internal/domain/account"
	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
)

// CreateAccountRequest represents a request to create an account
type CreateAccountRequest struct {
	Code        string `json:"code" binding:"required"`
	NameAr      string `json:"name_ar" binding:"required"`
	NameEn      string `json:"name_en"`
	Type        string `json:"type" binding:"required"`
	ParentID    string `json:"parent_id"`
	IsSystem    bool   `json:"is_system"`
	Description string `json:"description"`
}

// UpdateAccountRequest represents a request to rename an account
type UpdateAccountRequest struct {
	NameAr      string `json:"name_ar" binding:"required"`
	NameEn      string `json:"name_en"`
	Description string `json:"description"`
}

// ChangeAccountTypeRequest represents a request to reclassify an account
type ChangeAccountTypeRequest struct {
	Type string `json:"type" binding:"required"`
}

// CreateFiscalYearRequest represents a request to create a fiscal year
type CreateFiscalYearRequest struct {
	Year int `json:"year" binding:"required"`
}

// UnlockPeriodRequest represents a request to reopen a locked period
type UnlockPeriodRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// JournalLineRequest represents one line of a journal entry request
type JournalLineRequest struct {
	AccountID   string          `json:"account_id" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	CostCenter  string          `json:"cost_center"`
	Location    string          `json:"location"`
}

// CreateJournalEntryRequest represents a request to create a draft entry
type CreateJournalEntryRequest struct {
	JournalDate     time.Time            `json:"journal_date" binding:"required"`
	Description     string               `json:"description" binding:"required"`
	ReferenceNumber string               `json:"reference_number"`
	Source          string               `json:"source"`
	SourceID        string               `json:"source_id"`
	CostCenter      string               `json:"cost_center"`
	Lines           []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateJournalEntryRequest represents a request to rewrite a draft entry
type UpdateJournalEntryRequest struct {
	JournalDate     time.Time            `json:"journal_date" binding:"required"`
	Description     string               `json:"description" binding:"required"`
	ReferenceNumber string               `json:"reference_number"`
	CostCenter      string               `json:"cost_center"`
	Lines           []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ReverseEntryRequest represents a request to reverse a posted entry
type ReverseEntryRequest struct {
	ReversalDate time.Time `json:"reversal_date" binding:"required"`
	Reason       string    `json:"reason" binding:"required"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	NameAr        string `json:"name_ar"`
	NameEn        string `json:"name_en,omitempty"`
	Type          string `json:"type"`
	NormalBalance string `json:"normal_balance"`
	ParentID      string `json:"parent_id,omitempty"`
	Level         int    `json:"level"`
	IsLeaf        bool   `json:"is_leaf"`
	AllowPosting  bool   `json:"allow_posting"`
	IsActive      bool   `json:"is_active"`
	IsSystem      bool   `json:"is_system"`
	HasPostings   bool   `json:"has_postings"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// AccountTreeNode represents one node of the chart-of-accounts hierarchy
type AccountTreeNode struct {
	Account  AccountResponse   `json:"account"`
	Children []AccountTreeNode `json:"children,omitempty"`
}

// PeriodResponse represents a fiscal period in API responses
type PeriodResponse struct {
	ID           string `json:"id"`
	Number       int    `json:"number"`
	Month        int    `json:"month"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Status       string `json:"status"`
	LockedAt     string `json:"locked_at,omitempty"`
	LockedBy     string `json:"locked_by,omitempty"`
	UnlockReason string `json:"unlock_reason,omitempty"`
}

// FiscalYearResponse represents a fiscal year in API responses
type FiscalYearResponse struct {
	ID        string           `json:"id"`
	Year      int              `json:"year"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Status    string           `json:"status"`
	ClosedAt  string           `json:"closed_at,omitempty"`
	ClosedBy  string           `json:"closed_by,omitempty"`
	Periods   []PeriodResponse `json:"periods"`
}

// JournalLineResponse represents one journal line in API responses
type JournalLineResponse struct {
	ID          string `json:"id"`
	LineNumber  int    `json:"line_number"`
	AccountID   string `json:"account_id"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty"`
	CostCenter  string `json:"cost_center,omitempty"`
	Location    string `json:"location,omitempty"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID              string                `json:"id"`
	JournalNumber   string                `json:"journal_number,omitempty"`
	DraftCode       string                `json:"draft_code"`
	JournalDate     string                `json:"journal_date"`
	Description     string                `json:"description"`
	ReferenceNumber string                `json:"reference_number,omitempty"`
	Status          string                `json:"status"`
	Source          string                `json:"source"`
	SourceID        string                `json:"source_id,omitempty"`
	FiscalYearID    string                `json:"fiscal_year_id"`
	FiscalPeriodID  string                `json:"fiscal_period_id"`
	CostCenter      string                `json:"cost_center,omitempty"`
	PostedAt        string                `json:"posted_at,omitempty"`
	PostedBy        string                `json:"posted_by,omitempty"`
	ReversedEntryID string                `json:"reversed_entry_id,omitempty"`
	ReversalEntryID string                `json:"reversal_entry_id,omitempty"`
	AdjustedEntryID string                `json:"adjusted_entry_id,omitempty"`
	ReversalReason  string                `json:"reversal_reason,omitempty"`
	TotalDebit      string                `json:"total_debit"`
	TotalCredit     string                `json:"total_credit"`
	Lines           []JournalLineResponse `json:"lines"`
}

func mapAccountToResponse(a *account.Account) AccountResponse {
	resp := AccountResponse{
		ID:            a.ID.String(),
		Code:          a.Code,
		NameAr:        a.NameAr,
		NameEn:        a.NameEn,
		Type:          string(a.Type),
		NormalBalance: string(a.NormalBalance),
		Level:         a.Level,
		IsLeaf:        a.IsLeaf,
		AllowPosting:  a.AllowPosting,
		IsActive:      a.IsActive,
		IsSystem:      a.IsSystemAccount,
		HasPostings:   a.HasPostings,
		Description:   a.Description,
		CreatedAt:     a.Lifecycle.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     a.Lifecycle.UpdatedAt.Format(time.RFC3339),
	}
	if a.ParentID != nil {
		resp.ParentID = a.ParentID.String()
	}
	return resp
}

func mapAccountsToResponse(accounts []*account.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, mapAccountToResponse(a))
	}
	return out
}

func mapAccountTreeToResponse(nodes []*accounting.AccountNode) []AccountTreeNode {
	out := make([]AccountTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, AccountTreeNode{
			Account:  mapAccountToResponse(n.Account),
			Children: mapAccountTreeToResponse(n.Children),
		})
	}
	return out
}

func mapPeriodToResponse(p *fiscal.Period) PeriodResponse {
	resp := PeriodResponse{
		ID:           p.ID.String(),
		Number:       p.Number,
		Month:        p.Month,
		StartDate:    p.StartDate.Format(time.RFC3339),
		EndDate:      p.EndDate.Format(time.RFC3339),
		Status:       string(p.Status),
		LockedBy:     p.LockedBy,
		UnlockReason: p.UnlockReason,
	}
	if p.LockedAt != nil {
		resp.LockedAt = p.LockedAt.Format(time.RFC3339)
	}
	return resp
}

func mapFiscalYearToResponse(fy *fiscal.Year) FiscalYearResponse {
	resp := FiscalYearResponse{
		ID:        fy.ID.String(),
		Year:      fy.Year,
		StartDate: fy.StartDate.Format(time.RFC3339),
		EndDate:   fy.EndDate.Format(time.RFC3339),
		Status:    string(fy.Status),
		ClosedBy:  fy.ClosedBy,
		Periods:   make([]PeriodResponse, 0, len(fy.Periods)),
	}
	if fy.ClosedAt != nil {
		resp.ClosedAt = fy.ClosedAt.Format(time.RFC3339)
	}
	for _, p := range fy.Periods {
		resp.Periods = append(resp.Periods, mapPeriodToResponse(p))
	}
	return resp
}

func mapFiscalYearsToResponse(years []*fiscal.Year) []FiscalYearResponse {
	out := make([]FiscalYearResponse, 0, len(years))
	for _, fy := range years {
		out = append(out, mapFiscalYearToResponse(fy))
	}
	return out
}

func mapJournalEntryToResponse(e *journal.Entry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:              e.ID.String(),
		JournalNumber:   e.JournalNumber,
		DraftCode:       e.DraftCode,
		JournalDate:     e.JournalDate.Format(time.RFC3339),
		Description:     e.Description,
		ReferenceNumber: e.ReferenceNumber,
		Status:          string(e.Status),
		Source:          string(e.Source),
		FiscalYearID:    e.FiscalYearID.String(),
		FiscalPeriodID:  e.FiscalPeriodID.String(),
		CostCenter:      e.CostCenter,
		PostedBy:        e.PostedBy,
		ReversalReason:  e.ReversalReason,
		TotalDebit:      e.TotalDebit().String(),
		TotalCredit:     e.TotalCredit().String(),
		Lines:           make([]JournalLineResponse, 0, len(e.Lines)),
	}
	if e.SourceID != nil {
		resp.SourceID = e.SourceID.String()
	}
	if e.PostedAt != nil {
		resp.PostedAt = e.PostedAt.Format(time.RFC3339)
	}
	if e.ReversedEntryID != nil {
		resp.ReversedEntryID = e.ReversedEntryID.String()
	}
	if e.ReversalEntryID != nil {
		resp.ReversalEntryID = e.ReversalEntryID.String()
	}
	if e.AdjustedEntryID != nil {
		resp.AdjustedEntryID = e.AdjustedEntryID.String()
	}
	for _, line := range e.Lines {
		resp.Lines = append(resp.Lines, JournalLineResponse{
			ID:          line.ID.String(),
			LineNumber:  line.LineNumber,
			AccountID:   line.AccountID.String(),
			Debit:       line.Debit.String(),
			Credit:      line.Credit.String(),
			Description: line.Description,
			CostCenter:  line.CostCenter,
			Location:    line.Location,
		})
	}
	return resp
}

func mapJournalEntriesToResponse(entries []*journal.Entry) []JournalEntryResponse {
	out := make([]JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, mapJournalEntryToResponse(e))
	}
	return out
}
