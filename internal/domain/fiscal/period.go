package fiscal

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Period rule violations
var (
	ErrPeriodAlreadyLocked = errors.New("period is already locked")
	ErrPeriodAlreadyOpen   = errors.New("period is already open")
	ErrUnlockReasonNeeded  = errors.New("an unlock justification is required")
	ErrLockedByRequired    = errors.New("username is required to lock a period")
)

// PeriodStatus is the lifecycle state of a fiscal period.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusLocked PeriodStatus = "LOCKED"
)

// Period is one monthly subdivision of a fiscal year. Periods have no
// independent lifecycle; the owning FiscalYear gates every transition.
type Period struct {
	ID           uuid.UUID    `json:"id"`
	FiscalYearID uuid.UUID    `json:"fiscal_year_id"`
	Number       int          `json:"number"` // 1-12
	Year         int          `json:"year"`
	Month        int          `json:"month"` // equals Number: calendar months only
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"`
	Status       PeriodStatus `json:"status"`
	LockedAt     *time.Time   `json:"locked_at,omitempty"`
	LockedBy     string       `json:"locked_by,omitempty"`
	UnlockReason string       `json:"unlock_reason,omitempty"`
}

// IsOpen reports whether the period accepts postings.
func (p *Period) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}

// ContainsDate reports whether the date falls within this period.
func (p *Period) ContainsDate(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// lock transitions Open -> Locked. Sequential ordering is enforced by the
// owning FiscalYear.
func (p *Period) lock(lockedBy string, lockedAt time.Time) error {
	switch p.Status {
	case PeriodStatusOpen:
		if strings.TrimSpace(lockedBy) == "" {
			return ErrLockedByRequired
		}
		p.Status = PeriodStatusLocked
		p.LockedAt = &lockedAt
		p.LockedBy = strings.TrimSpace(lockedBy)
		return nil
	case PeriodStatusLocked:
		return ErrPeriodAlreadyLocked
	default:
		return ErrPeriodAlreadyLocked
	}
}

// unlock transitions Locked -> Open, recording the mandatory justification.
func (p *Period) unlock(reason string) error {
	switch p.Status {
	case PeriodStatusLocked:
		if strings.TrimSpace(reason) == "" {
			return ErrUnlockReasonNeeded
		}
		p.Status = PeriodStatusOpen
		p.LockedAt = nil
		p.LockedBy = ""
		p.UnlockReason = strings.TrimSpace(reason)
		return nil
	case PeriodStatusOpen:
		return ErrPeriodAlreadyOpen
	default:
		return ErrPeriodAlreadyOpen
	}
}
