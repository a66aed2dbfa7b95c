package journal

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line rule violations
var (
	ErrLineAccountRequired = errors.New("an account reference is required for a journal line")
	ErrLineNegativeAmount  = errors.New("negative amounts are not allowed on journal lines")
	ErrLineBothSides       = errors.New("a journal line must be either debit or credit, never both")
	ErrLineNoAmount        = errors.New("a journal line cannot have zero on both debit and credit")
	ErrLinePrecision       = errors.New("monetary amounts cannot exceed four decimal places")
)

// maxAmountScale bounds line precision. Posting-document sources compute line
// amounts at four decimal places; anything finer is a caller bug.
const maxAmountScale = 4

// Line is one leg of a journal entry: exactly one of debit or credit is
// strictly positive. Amounts are computed once at construction and never
// mutated; draft edits replace lines wholesale.
type Line struct {
	ID             uuid.UUID       `json:"id"`
	JournalEntryID uuid.UUID       `json:"journal_entry_id"`
	LineNumber     int             `json:"line_number"`
	AccountID      uuid.UUID       `json:"account_id"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Description    string          `json:"description,omitempty"`
	CostCenter     string          `json:"cost_center,omitempty"`
	Location       string          `json:"location,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewLine creates a validated journal line.
func NewLine(accountID uuid.UUID, debit, credit decimal.Decimal, description, costCenter, location string, createdAt time.Time) (Line, error) {
	if accountID == uuid.Nil {
		return Line{}, ErrLineAccountRequired
	}
	if debit.IsNegative() || credit.IsNegative() {
		return Line{}, ErrLineNegativeAmount
	}
	if debit.IsPositive() && credit.IsPositive() {
		return Line{}, ErrLineBothSides
	}
	if debit.IsZero() && credit.IsZero() {
		return Line{}, ErrLineNoAmount
	}
	if scaleOf(debit) > maxAmountScale || scaleOf(credit) > maxAmountScale {
		return Line{}, ErrLinePrecision
	}

	return Line{
		ID:          uuid.New(),
		AccountID:   accountID,
		Debit:       debit,
		Credit:      credit,
		Description: strings.TrimSpace(description),
		CostCenter:  strings.TrimSpace(costCenter),
		Location:    strings.TrimSpace(location),
		CreatedAt:   createdAt,
	}, nil
}

// mirrored returns the debit/credit-swapped copy used to build reversals.
func (l Line) mirrored(createdAt time.Time) Line {
	m := l
	m.ID = uuid.New()
	m.JournalEntryID = uuid.Nil
	m.Debit = l.Credit
	m.Credit = l.Debit
	m.Description = reversalPrefix + l.Description
	m.CreatedAt = createdAt
	return m
}

func scaleOf(d decimal.Decimal) int {
	if d.Exponent() >= 0 {
		return 0
	}
	return int(-d.Exponent())
}
