// Package accounting contains the application services that orchestrate the
// ledger workflows: chart-of-accounts maintenance, fiscal calendar control,
// journal entry lifecycle and year-end closing. Services validate, authorize,
// run the domain rules and commit each workflow in a single transaction.
package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/marco-erp/ledger-core/internal/domain/account"
	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// TxManager runs a function inside a database transaction. Satisfied by
// *persistence.PostgresDB.
type TxManager interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	ExecuteSerializableTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// CreateAccountInput carries the caller-supplied fields for a new account.
type CreateAccountInput struct {
	Code        string
	NameAr      string
	NameEn      string
	Type        account.Type
	ParentID    *uuid.UUID
	IsSystem    bool
	Description string
}

// UpdateAccountInput carries the editable fields of an existing account.
type UpdateAccountInput struct {
	NameAr      string
	NameEn      string
	Description string
}

// AccountNode is one node of the chart-of-accounts tree.
type AccountNode struct {
	Account  *account.Account `json:"account"`
	Children []*AccountNode   `json:"children,omitempty"`
}

// AccountService defines the chart-of-accounts operations
type AccountService interface {
	// CreateAccount creates an account under an optional parent. The level is
	// derived from the parent, the code must be unique and fall within the
	// parent's numeric range, and a parent gaining its first child stops
	// accepting postings.
	CreateAccount(ctx context.Context, input CreateAccountInput) (*account.Account, error)

	// UpdateAccount changes names and description of an account
	UpdateAccount(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*account.Account, error)

	// ChangeAccountType reclassifies an account that has never been posted to
	ChangeAccountType(ctx context.Context, id uuid.UUID, newType account.Type) (*account.Account, error)

	// ActivateAccount re-enables postings to a deactivated account
	ActivateAccount(ctx context.Context, id uuid.UUID) error

	// DeactivateAccount stops new postings without touching history
	DeactivateAccount(ctx context.Context, id uuid.UUID) error

	// DeleteAccount soft-deletes a childless, never-posted account
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	// GetAccount retrieves an account by ID
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// GetAccountByCode retrieves an account by its 4-digit code
	GetAccountByCode(ctx context.Context, code string) (*account.Account, error)

	// ListAccounts returns all accounts in code order
	ListAccounts(ctx context.Context) ([]*account.Account, error)

	// ListAccountsByType returns accounts of one classification
	ListAccountsByType(ctx context.Context, accountType account.Type) ([]*account.Account, error)

	// ListPostableAccounts returns active leaves that accept journal lines
	ListPostableAccounts(ctx context.Context) ([]*account.Account, error)

	// GetAccountTree returns the chart of accounts as a hierarchy
	GetAccountTree(ctx context.Context) ([]*AccountNode, error)
}

// FiscalYearService defines fiscal calendar operations
type FiscalYearService interface {
	// CreateFiscalYear creates a year in Setup with its twelve open periods
	CreateFiscalYear(ctx context.Context, year int) (*fiscal.Year, error)

	// ActivateFiscalYear transitions a year from Setup to Active, enforcing
	// that at most one year is Active at a time
	ActivateFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error)

	// CloseFiscalYear runs the year-end closing and transitions the year to
	// Closed. Fails while drafts remain or the trial balance is out of balance.
	CloseFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error)

	// LockPeriod locks the next period in sequence once it holds no drafts
	LockPeriod(ctx context.Context, yearID uuid.UUID, periodNumber int) (*fiscal.Year, error)

	// UnlockPeriod reopens the most recently locked period with a justification
	UnlockPeriod(ctx context.Context, yearID uuid.UUID, periodNumber int, reason string) (*fiscal.Year, error)

	// GetFiscalYear retrieves a year with its periods
	GetFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error)

	// GetActiveFiscalYear retrieves the single Active year
	GetActiveFiscalYear(ctx context.Context) (*fiscal.Year, error)

	// ListFiscalYears returns all years, newest first
	ListFiscalYears(ctx context.Context) ([]*fiscal.Year, error)
}

// JournalLineInput carries one caller-supplied journal line.
type JournalLineInput struct {
	AccountID   uuid.UUID
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
	CostCenter  string
	Location    string
}

// CreateJournalEntryInput carries the fields for a new draft entry.
type CreateJournalEntryInput struct {
	JournalDate     time.Time
	Description     string
	ReferenceNumber string
	Source          shared.SourceType
	SourceID        *uuid.UUID
	CostCenter      string
	Lines           []JournalLineInput
}

// UpdateJournalEntryInput carries the editable fields of a draft entry.
// Lines replace the existing set wholesale.
type UpdateJournalEntryInput struct {
	JournalDate     time.Time
	Description     string
	ReferenceNumber string
	CostCenter      string
	Lines           []JournalLineInput
}

// JournalService defines journal entry lifecycle operations
type JournalService interface {
	// CreateDraft creates a draft entry dated inside the active fiscal year
	CreateDraft(ctx context.Context, input CreateJournalEntryInput) (*journal.Entry, error)

	// CreateAdjustment creates a draft adjustment linked to a posted entry
	CreateAdjustment(ctx context.Context, adjustedID uuid.UUID, input CreateJournalEntryInput) (*journal.Entry, error)

	// UpdateDraft replaces the header and lines of a draft
	UpdateDraft(ctx context.Context, id uuid.UUID, input UpdateJournalEntryInput) (*journal.Entry, error)

	// DeleteDraft soft-deletes a draft entry
	DeleteDraft(ctx context.Context, id uuid.UUID) error

	// PostEntry validates a draft end to end, assigns its permanent journal
	// number and transitions it to Posted, all in one transaction
	PostEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, error)

	// ReverseEntry creates, posts and links the mirrored entry undoing a
	// posted entry
	ReverseEntry(ctx context.Context, id uuid.UUID, reversalDate time.Time, reason string) (*journal.Entry, error)

	// GetEntry retrieves an entry with its lines
	GetEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, error)

	// ListByPeriod returns all entries dated in a fiscal period
	ListByPeriod(ctx context.Context, fiscalPeriodID uuid.UUID) ([]*journal.Entry, error)

	// ListByStatus returns a fiscal year's entries in one lifecycle state
	ListByStatus(ctx context.Context, fiscalYearID uuid.UUID, status journal.Status) ([]*journal.Entry, error)
}
