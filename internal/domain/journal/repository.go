package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountActivity is the per-account aggregation of posted lines used by the
// year-end closing engine: the summed debit and credit sides of every posted
// line hitting the account within a fiscal year.
type AccountActivity struct {
	AccountID   uuid.UUID
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Net returns debit minus credit for the account's activity.
func (a AccountActivity) Net() decimal.Decimal {
	return a.TotalDebit.Sub(a.TotalCredit)
}

// Repository defines data access for journal entries and their lines.
// Entries are always persisted and loaded with their full line set.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByJournalNumber(ctx context.Context, journalNumber string) (*Entry, error)
	GetByPeriod(ctx context.Context, fiscalPeriodID uuid.UUID) ([]*Entry, error)
	GetByStatus(ctx context.Context, fiscalYearID uuid.UUID, status Status) ([]*Entry, error)
	CountDraftsByYear(ctx context.Context, fiscalYearID uuid.UUID) (int, error)
	CountDraftsByPeriod(ctx context.Context, fiscalPeriodID uuid.UUID) (int, error)
	GetPostedActivityByYear(ctx context.Context, fiscalYearID uuid.UUID) ([]AccountActivity, error)
	HasPostedEntryBySource(ctx context.Context, fiscalYearID uuid.UUID, source string) (bool, error)
	HasPostedLinesForAccount(ctx context.Context, accountID uuid.UUID) (bool, error)
	Update(ctx context.Context, entry *Entry) error
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound is returned when no journal entry matches the lookup.
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return fmt.Sprintf("journal entry with ID %s not found", e.EntryID)
}

// ErrEntryConcurrentModification is returned when an optimistic-lock update
// finds the entry was changed by another transaction.
type ErrEntryConcurrentModification struct {
	EntryID uuid.UUID
}

func (e ErrEntryConcurrentModification) Error() string {
	return fmt.Sprintf("journal entry with ID %s was modified concurrently", e.EntryID)
}

// ErrDuplicateJournalNumber is returned when a journal number collides with
// an already persisted entry.
type ErrDuplicateJournalNumber struct {
	JournalNumber string
}

func (e ErrDuplicateJournalNumber) Error() string {
	return fmt.Sprintf("journal number %s already exists", e.JournalNumber)
}
