package fiscal

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines fiscal calendar persistence operations. Loads always
// return the year with its twelve periods: the aggregate owns them
// exclusively and is never handled piecemeal.
type Repository interface {
	Create(ctx context.Context, year *Year) error
	GetByID(ctx context.Context, id uuid.UUID) (*Year, error)
	GetByYear(ctx context.Context, year int) (*Year, error)
	GetActive(ctx context.Context) (*Year, error)
	GetAll(ctx context.Context) ([]*Year, error)
	YearExists(ctx context.Context, year int) (bool, error)

	// Update persists the year and all its periods with optimistic locking
	// on the year's Version.
	Update(ctx context.Context, year *Year) error

	WithTx(tx pgx.Tx) Repository
}

// ErrYearNotFound indicates a missing fiscal year
type ErrYearNotFound struct {
	FiscalYearID uuid.UUID
}

func (e ErrYearNotFound) Error() string {
	return "fiscal year not found: " + e.FiscalYearID.String()
}

// ErrNoActiveYear indicates that no fiscal year is currently Active
type ErrNoActiveYear struct{}

func (e ErrNoActiveYear) Error() string {
	return "no active fiscal year"
}

// ErrDuplicateYear indicates calendar year uniqueness violation
type ErrDuplicateYear struct {
	Year int
}

func (e ErrDuplicateYear) Error() string {
	return "fiscal year already exists: " + strconv.Itoa(e.Year)
}

// ErrYearConcurrentModification indicates optimistic lock failure on a year
type ErrYearConcurrentModification struct {
	FiscalYearID uuid.UUID
}

func (e ErrYearConcurrentModification) Error() string {
	return "concurrent modification detected for fiscal year: " + e.FiscalYearID.String()
}
