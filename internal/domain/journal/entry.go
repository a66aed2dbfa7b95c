package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// Status tracks a journal entry through its lifecycle. Transitions are
// one-way: Draft to Posted, Posted to Reversed. Posted and Reversed entries
// are immutable ledger records.
type Status string

const (
	StatusDraft    Status = "Draft"
	StatusPosted   Status = "Posted"
	StatusReversed Status = "Reversed"
)

const (
	draftCodePrefix = "DRAFT-"
	reversalPrefix  = "Reversal of: "
	minLineCount    = 2
)

var (
	ErrDescriptionRequired   = errors.New("a journal entry description is required")
	ErrDateRequired          = errors.New("a journal date is required")
	ErrCreatedByRequired     = errors.New("created by is required")
	ErrUnknownSourceType     = errors.New("unknown journal source type")
	ErrNotDraft              = errors.New("only draft entries can be modified")
	ErrNotPosted             = errors.New("only posted entries can be reversed")
	ErrAlreadyPosted         = errors.New("the journal entry is already posted")
	ErrAlreadyReversed       = errors.New("the journal entry is already reversed")
	ErrJournalNumberRequired = errors.New("a journal number is required to post")
	ErrPostedByRequired      = errors.New("posted by is required")
	ErrReversalReasonNeeded  = errors.New("a reason is required to reverse a posted entry")
	ErrAdjustedEntryRequired = errors.New("an adjustment must reference the entry it adjusts")
	ErrLineNotFound          = errors.New("journal line not found")
)

// Entry is a journal entry: the unit of double-entry recording. A draft
// carries a provisional code; the permanent journal number is assigned at
// posting time and never reused.
type Entry struct {
	ID              uuid.UUID         `json:"id"`
	JournalNumber   string            `json:"journal_number,omitempty"`
	DraftCode       string            `json:"draft_code"`
	JournalDate     time.Time         `json:"journal_date"`
	Description     string            `json:"description"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	Status          Status            `json:"status"`
	Source          shared.SourceType `json:"source"`
	SourceID        *uuid.UUID        `json:"source_id,omitempty"`
	FiscalYearID    uuid.UUID         `json:"fiscal_year_id"`
	FiscalPeriodID  uuid.UUID         `json:"fiscal_period_id"`
	CostCenter      string            `json:"cost_center,omitempty"`
	Lines           []Line            `json:"lines"`

	PostedAt *time.Time `json:"posted_at,omitempty"`
	PostedBy string     `json:"posted_by,omitempty"`

	// Reversal linkage. ReversedEntryID is set on the reversal pointing back
	// at the original; ReversalEntryID is set on the original pointing at its
	// reversal. AdjustedEntryID links an adjustment to the entry it amends.
	ReversedEntryID *uuid.UUID `json:"reversed_entry_id,omitempty"`
	ReversalEntryID *uuid.UUID `json:"reversal_entry_id,omitempty"`
	AdjustedEntryID *uuid.UUID `json:"adjusted_entry_id,omitempty"`
	ReversalReason  string     `json:"reversal_reason,omitempty"`

	Version   int `json:"version"`
	Lifecycle shared.Lifecycle
}

// CreateDraft creates a new draft journal entry with a provisional code.
func CreateDraft(journalDate time.Time, description, referenceNumber string, source shared.SourceType, sourceID *uuid.UUID, fiscalYearID, fiscalPeriodID uuid.UUID, costCenter, createdBy string, createdAt time.Time) (*Entry, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if journalDate.IsZero() {
		return nil, ErrDateRequired
	}
	if strings.TrimSpace(createdBy) == "" {
		return nil, ErrCreatedByRequired
	}
	if !source.Valid() {
		return nil, ErrUnknownSourceType
	}

	id := uuid.New()
	return &Entry{
		ID:              id,
		DraftCode:       newDraftCode(id),
		JournalDate:     journalDate,
		Description:     description,
		ReferenceNumber: strings.TrimSpace(referenceNumber),
		Status:          StatusDraft,
		Source:          source,
		SourceID:        sourceID,
		FiscalYearID:    fiscalYearID,
		FiscalPeriodID:  fiscalPeriodID,
		CostCenter:      strings.TrimSpace(costCenter),
		Version:         1,
		Lifecycle:       shared.NewLifecycle(createdBy, createdAt),
	}, nil
}

// CreateAdjustment creates a draft adjustment linked to the posted entry it
// amends. The adjustment goes through the ordinary draft lifecycle.
func CreateAdjustment(adjusted *Entry, journalDate time.Time, description string, fiscalYearID, fiscalPeriodID uuid.UUID, createdBy string, createdAt time.Time) (*Entry, error) {
	if adjusted == nil {
		return nil, ErrAdjustedEntryRequired
	}
	if adjusted.Status != StatusPosted {
		return nil, ErrNotPosted
	}

	entry, err := CreateDraft(journalDate, description, adjusted.JournalNumber, shared.SourceTypeAdjustment, nil, fiscalYearID, fiscalPeriodID, adjusted.CostCenter, createdBy, createdAt)
	if err != nil {
		return nil, err
	}
	adjustedID := adjusted.ID
	entry.AdjustedEntryID = &adjustedID
	return entry, nil
}

func newDraftCode(id uuid.UUID) string {
	raw := strings.ReplaceAll(id.String(), "-", "")
	return draftCodePrefix + strings.ToUpper(raw[:8])
}

// IsDraft reports whether the entry can still be edited.
func (e *Entry) IsDraft() bool { return e.Status == StatusDraft }

// TotalDebit sums the debit side of all lines.
func (e *Entry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side of all lines.
func (e *Entry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether debits equal credits exactly.
func (e *Entry) IsBalanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}

// AddLine appends a line to a draft and assigns its line number.
func (e *Entry) AddLine(line Line) error {
	if e.Status != StatusDraft {
		return ErrNotDraft
	}
	line.JournalEntryID = e.ID
	line.LineNumber = len(e.Lines) + 1
	e.Lines = append(e.Lines, line)
	return nil
}

// RemoveLine removes a line from a draft and renumbers the remainder.
func (e *Entry) RemoveLine(lineID uuid.UUID) error {
	if e.Status != StatusDraft {
		return ErrNotDraft
	}
	idx := -1
	for i, l := range e.Lines {
		if l.ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrLineNotFound
	}
	e.Lines = append(e.Lines[:idx], e.Lines[idx+1:]...)
	for i := range e.Lines {
		e.Lines[i].LineNumber = i + 1
	}
	return nil
}

// ReplaceLines swaps the full line set of a draft. Used by draft edits where
// the caller rebuilds the lines rather than patching amounts in place.
func (e *Entry) ReplaceLines(lines []Line) error {
	if e.Status != StatusDraft {
		return ErrNotDraft
	}
	e.Lines = e.Lines[:0]
	for _, l := range lines {
		l.JournalEntryID = e.ID
		l.LineNumber = len(e.Lines) + 1
		e.Lines = append(e.Lines, l)
	}
	return nil
}

// UpdateDraft changes the header fields of a draft. Line amounts are never
// patched in place; use ReplaceLines.
func (e *Entry) UpdateDraft(journalDate time.Time, description, referenceNumber, costCenter, updatedBy string, updatedAt time.Time) error {
	if e.Status != StatusDraft {
		return ErrNotDraft
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return ErrDescriptionRequired
	}
	if journalDate.IsZero() {
		return ErrDateRequired
	}
	e.JournalDate = journalDate
	e.Description = description
	e.ReferenceNumber = strings.TrimSpace(referenceNumber)
	e.CostCenter = strings.TrimSpace(costCenter)
	e.Lifecycle.Touch(updatedBy, updatedAt)
	return nil
}

// Validate returns every invariant violation on the entry itself. An empty
// slice means the entry is internally consistent and eligible for posting,
// subject to the calendar and account checks the orchestrator performs.
func (e *Entry) Validate() []string {
	var violations []string
	if strings.TrimSpace(e.Description) == "" {
		violations = append(violations, "a journal entry description is required")
	}
	if e.JournalDate.IsZero() {
		violations = append(violations, "a journal date is required")
	}
	if len(e.Lines) < minLineCount {
		violations = append(violations, fmt.Sprintf("a journal entry needs at least %d lines, found %d", minLineCount, len(e.Lines)))
	}
	if !e.IsBalanced() {
		violations = append(violations, fmt.Sprintf("entry is not balanced: total debit %s, total credit %s, difference %s",
			e.TotalDebit().String(), e.TotalCredit().String(), e.TotalDebit().Sub(e.TotalCredit()).String()))
	}
	return violations
}

// ValidateWithCalendar runs Validate and additionally checks the journal date
// against the fiscal year and period date ranges.
func (e *Entry) ValidateWithCalendar(year *fiscal.Year, period *fiscal.Period) []string {
	violations := e.Validate()
	if year != nil && !year.ContainsDate(e.JournalDate) {
		violations = append(violations, fmt.Sprintf("journal date %s falls outside fiscal year %d", e.JournalDate.Format("2006-01-02"), year.Year))
	}
	if period != nil && !period.ContainsDate(e.JournalDate) {
		violations = append(violations, fmt.Sprintf("journal date %s falls outside period %d", e.JournalDate.Format("2006-01-02"), period.Number))
	}
	return violations
}

// Post transitions a draft to Posted with its permanent journal number.
func (e *Entry) Post(journalNumber, postedBy string, postedAt time.Time) error {
	switch e.Status {
	case StatusDraft:
	case StatusPosted:
		return ErrAlreadyPosted
	case StatusReversed:
		return ErrAlreadyReversed
	default:
		return fmt.Errorf("unknown journal status %q", e.Status)
	}

	if strings.TrimSpace(journalNumber) == "" {
		return ErrJournalNumberRequired
	}
	if strings.TrimSpace(postedBy) == "" {
		return ErrPostedByRequired
	}

	e.JournalNumber = journalNumber
	e.Status = StatusPosted
	e.PostedAt = &postedAt
	e.PostedBy = postedBy
	e.Lifecycle.Touch(postedBy, postedAt)
	return nil
}

// CreateReversal builds the mirrored draft that undoes this posted entry:
// every line's debit and credit are swapped. The reversal points back at the
// original; the original is linked to it by MarkAsReversed once the reversal
// is posted.
func (e *Entry) CreateReversal(reversalDate time.Time, reason string, fiscalYearID, fiscalPeriodID uuid.UUID, createdBy string, createdAt time.Time) (*Entry, error) {
	switch e.Status {
	case StatusPosted:
	case StatusDraft:
		return nil, ErrNotPosted
	case StatusReversed:
		return nil, ErrAlreadyReversed
	default:
		return nil, fmt.Errorf("unknown journal status %q", e.Status)
	}
	if e.ReversalEntryID != nil {
		return nil, ErrAlreadyReversed
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReversalReasonNeeded
	}

	reversal, err := CreateDraft(reversalDate, reversalPrefix+e.Description, e.JournalNumber, e.Source, e.SourceID, fiscalYearID, fiscalPeriodID, e.CostCenter, createdBy, createdAt)
	if err != nil {
		return nil, err
	}
	originalID := e.ID
	reversal.ReversedEntryID = &originalID
	reversal.ReversalReason = strings.TrimSpace(reason)
	for _, l := range e.Lines {
		if err := reversal.AddLine(l.mirrored(createdAt)); err != nil {
			return nil, err
		}
	}
	return reversal, nil
}

// MarkAsReversed links a posted entry to its posted reversal. Terminal state.
func (e *Entry) MarkAsReversed(reversalID uuid.UUID, reason, reversedBy string, reversedAt time.Time) error {
	switch e.Status {
	case StatusPosted:
	case StatusDraft:
		return ErrNotPosted
	case StatusReversed:
		return ErrAlreadyReversed
	default:
		return fmt.Errorf("unknown journal status %q", e.Status)
	}

	e.Status = StatusReversed
	e.ReversalEntryID = &reversalID
	e.ReversalReason = strings.TrimSpace(reason)
	e.Lifecycle.Touch(reversedBy, reversedAt)
	return nil
}

// SoftDelete marks a draft as deleted. Posted and reversed entries are
// permanent ledger records and cannot be deleted.
func (e *Entry) SoftDelete(deletedBy string, deletedAt time.Time) error {
	if e.Status != StatusDraft {
		return ErrNotDraft
	}
	e.Lifecycle.MarkDeleted(deletedBy, deletedAt)
	return nil
}
