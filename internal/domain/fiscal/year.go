package fiscal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// Year rule violations
var (
	ErrYearOutOfRange      = errors.New("fiscal year must be between 2000 and 2100")
	ErrActivateFromSetup   = errors.New("a fiscal year can only be activated from Setup")
	ErrCloseRequiresActive = errors.New("only an Active fiscal year can be closed")
	ErrYearIsClosed        = errors.New("the fiscal year is closed and cannot change")
	ErrPeriodsNotLocked    = errors.New("all 12 periods must be locked before closing the year")
	ErrClosedByRequired    = errors.New("username is required to close a fiscal year")
	ErrPeriodNotFound      = errors.New("no such period in this fiscal year")
	ErrNoLockedPeriods     = errors.New("no periods are locked")
)

// YearStatus is the lifecycle state of a fiscal year.
type YearStatus string

const (
	YearStatusSetup  YearStatus = "SETUP"
	YearStatusActive YearStatus = "ACTIVE"
	YearStatusClosed YearStatus = "CLOSED" // terminal
)

// Year is a fiscal year running January 1 through December 31, owning exactly
// twelve monthly periods created atomically at construction.
// Lifecycle: Setup -> Active -> Closed (irreversible). At most one Year may be
// Active system-wide; that invariant is cross-aggregate and enforced by the
// fiscal year service under serializable isolation.
type Year struct {
	ID        uuid.UUID        `json:"id"`
	Year      int              `json:"year"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Status    YearStatus       `json:"status"`
	ClosedAt  *time.Time       `json:"closed_at,omitempty"`
	ClosedBy  string           `json:"closed_by,omitempty"`
	Periods   []*Period        `json:"periods"`
	Version   int              `json:"version"` // Optimistic concurrency token
	Lifecycle shared.Lifecycle `json:"lifecycle"`
}

// NewYear creates a fiscal year in Setup with 12 Open monthly periods,
// period number = month, covering the calendar year.
func NewYear(year int, createdBy string, createdAt time.Time) (*Year, error) {
	if year < 2000 || year > 2100 {
		return nil, ErrYearOutOfRange
	}

	id := uuid.New()
	fy := &Year{
		ID:        id,
		Year:      year,
		StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Status:    YearStatusSetup,
		Version:   1,
		Lifecycle: shared.NewLifecycle(createdBy, createdAt),
	}

	for month := 1; month <= 12; month++ {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		fy.Periods = append(fy.Periods, &Period{
			ID:           uuid.New(),
			FiscalYearID: id,
			Number:       month,
			Year:         year,
			Month:        month,
			StartDate:    start,
			EndDate:      end,
			Status:       PeriodStatusOpen,
		})
	}

	return fy, nil
}

// Activate transitions Setup -> Active. The single-active-year rule is checked
// by the caller under the transaction's isolation guarantee.
func (y *Year) Activate() error {
	switch y.Status {
	case YearStatusSetup:
		y.Status = YearStatusActive
		return nil
	case YearStatusActive:
		return ErrActivateFromSetup
	case YearStatusClosed:
		return ErrYearIsClosed
	default:
		return ErrActivateFromSetup
	}
}

// Close transitions Active -> Closed, permanently. Every period must already
// be Locked; the caller additionally verifies zero drafts and trial balance.
func (y *Year) Close(closedBy string, closedAt time.Time) error {
	switch y.Status {
	case YearStatusActive:
		if strings.TrimSpace(closedBy) == "" {
			return ErrClosedByRequired
		}
		for _, p := range y.Periods {
			if p.Status != PeriodStatusLocked {
				return fmt.Errorf("%w: period %d is %s", ErrPeriodsNotLocked, p.Number, p.Status)
			}
		}
		y.Status = YearStatusClosed
		y.ClosedAt = &closedAt
		y.ClosedBy = strings.TrimSpace(closedBy)
		return nil
	case YearStatusSetup:
		return ErrCloseRequiresActive
	case YearStatusClosed:
		return ErrYearIsClosed
	default:
		return ErrCloseRequiresActive
	}
}

// IsOpen reports whether the year accepts postings.
func (y *Year) IsOpen() bool {
	return y.Status == YearStatusActive
}

// ContainsDate reports whether the date falls within the fiscal year.
func (y *Year) ContainsDate(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(y.StartDate) && !d.After(y.EndDate)
}

// PeriodByNumber returns the period with the given number (1-12).
func (y *Year) PeriodByNumber(number int) (*Period, error) {
	for _, p := range y.Periods {
		if p.Number == number {
			return p, nil
		}
	}
	return nil, ErrPeriodNotFound
}

// PeriodByID returns the period with the given identifier.
func (y *Year) PeriodByID(id uuid.UUID) (*Period, error) {
	for _, p := range y.Periods {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPeriodNotFound
}

// PeriodForDate returns the period containing the given date.
func (y *Year) PeriodForDate(date time.Time) (*Period, error) {
	for _, p := range y.Periods {
		if p.ContainsDate(date) {
			return p, nil
		}
	}
	return nil, ErrPeriodNotFound
}

// LastPeriod returns period 12, the one closing entries are dated in.
func (y *Year) LastPeriod() *Period {
	last := y.Periods[0]
	for _, p := range y.Periods {
		if p.Number > last.Number {
			last = p
		}
	}
	return last
}

// LockPeriod locks the period with the given number. Periods lock strictly in
// ascending order: locking N fails while any period below N is still Open.
func (y *Year) LockPeriod(number int, lockedBy string, lockedAt time.Time) error {
	if y.Status == YearStatusClosed {
		return ErrYearIsClosed
	}
	target, err := y.PeriodByNumber(number)
	if err != nil {
		return err
	}
	for _, prior := range y.Periods {
		if prior.Number < number && prior.Status == PeriodStatusOpen {
			return fmt.Errorf("period %d must be locked before period %d", prior.Number, number)
		}
	}
	return target.lock(lockedBy, lockedAt)
}

// UnlockPeriod reopens a locked period. Only the single most-recently-locked
// period may be unlocked, and a non-empty justification is required.
func (y *Year) UnlockPeriod(number int, reason string) error {
	if y.Status == YearStatusClosed {
		return ErrYearIsClosed
	}
	target, err := y.PeriodByNumber(number)
	if err != nil {
		return err
	}

	mostRecent := -1
	for _, p := range y.Periods {
		if p.Status == PeriodStatusLocked && p.Number > mostRecent {
			mostRecent = p.Number
		}
	}
	if mostRecent == -1 {
		return ErrNoLockedPeriods
	}
	if mostRecent != number {
		return fmt.Errorf("only the most recently locked period (%d) can be unlocked", mostRecent)
	}
	return target.unlock(reason)
}
