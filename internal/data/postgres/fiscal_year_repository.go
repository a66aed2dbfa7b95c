package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/platform/persistence"
)

const fiscalYearColumns = `id, year, start_date, end_date, status, closed_at, closed_by, version,
		created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

const fiscalPeriodColumns = `id, fiscal_year_id, period_number, year, month, start_date, end_date,
		status, locked_at, locked_by, unlock_reason`

// FiscalYearRepository implements the fiscal.Repository interface for PostgreSQL.
// Years and their periods are read and written as one unit.
type FiscalYearRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewFiscalYearRepository creates a new PostgreSQL fiscal year repository.
func NewFiscalYearRepository(logger *slog.Logger, db *persistence.PostgresDB) fiscal.Repository {
	return &FiscalYearRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *FiscalYearRepository) WithTx(tx pgx.Tx) fiscal.Repository {
	return &FiscalYearRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a fiscal year together with its twelve periods.
func (r *FiscalYearRepository) Create(ctx context.Context, year *fiscal.Year) error {
	yearQuery := `
		INSERT INTO fiscal_years (` + fiscalYearColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, yearQuery,
		year.ID,
		year.Year,
		year.StartDate,
		year.EndDate,
		year.Status,
		year.ClosedAt,
		year.ClosedBy,
		year.Version,
		year.Lifecycle.CreatedAt,
		year.Lifecycle.CreatedBy,
		year.Lifecycle.UpdatedAt,
		year.Lifecycle.UpdatedBy,
		year.Lifecycle.DeletedAt,
		year.Lifecycle.DeletedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fiscal.ErrDuplicateYear{Year: year.Year}
		}
		r.logger.Error("Failed to create fiscal year", "year", year.Year, "error", err)
		return fmt.Errorf("failed to create fiscal year: %w", err)
	}

	periodQuery := `
		INSERT INTO fiscal_periods (` + fiscalPeriodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, p := range year.Periods {
		_, err := r.querier.Exec(ctx, periodQuery,
			p.ID,
			p.FiscalYearID,
			p.Number,
			p.Year,
			p.Month,
			p.StartDate,
			p.EndDate,
			p.Status,
			p.LockedAt,
			p.LockedBy,
			p.UnlockReason,
		)
		if err != nil {
			r.logger.Error("Failed to create fiscal period", "year", year.Year, "period", p.Number, "error", err)
			return fmt.Errorf("failed to create fiscal period %d: %w", p.Number, err)
		}
	}

	return nil
}

// GetByID retrieves a fiscal year with its periods by ID.
func (r *FiscalYearRepository) GetByID(ctx context.Context, id uuid.UUID) (*fiscal.Year, error) {
	query := `
		SELECT ` + fiscalYearColumns + `
		FROM fiscal_years
		WHERE id = $1 AND deleted_at IS NULL
	`

	year, err := r.scanYear(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiscal.ErrYearNotFound{FiscalYearID: id}
		}
		r.logger.Error("Failed to get fiscal year", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get fiscal year: %w", err)
	}

	if err := r.loadPeriods(ctx, year); err != nil {
		return nil, err
	}
	return year, nil
}

// GetByYear retrieves a fiscal year with its periods by calendar year.
// Returns nil, nil if the year has not been created.
func (r *FiscalYearRepository) GetByYear(ctx context.Context, calendarYear int) (*fiscal.Year, error) {
	query := `
		SELECT ` + fiscalYearColumns + `
		FROM fiscal_years
		WHERE year = $1 AND deleted_at IS NULL
	`

	year, err := r.scanYear(r.querier.QueryRow(ctx, query, calendarYear))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get fiscal year", "year", calendarYear, "error", err)
		return nil, fmt.Errorf("failed to get fiscal year: %w", err)
	}

	if err := r.loadPeriods(ctx, year); err != nil {
		return nil, err
	}
	return year, nil
}

// GetActive retrieves the single Active fiscal year with its periods.
// Returns fiscal.ErrNoActiveYear if no year is active.
func (r *FiscalYearRepository) GetActive(ctx context.Context) (*fiscal.Year, error) {
	query := `
		SELECT ` + fiscalYearColumns + `
		FROM fiscal_years
		WHERE status = $1 AND deleted_at IS NULL
	`

	year, err := r.scanYear(r.querier.QueryRow(ctx, query, fiscal.YearStatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiscal.ErrNoActiveYear{}
		}
		r.logger.Error("Failed to get active fiscal year", "error", err)
		return nil, fmt.Errorf("failed to get active fiscal year: %w", err)
	}

	if err := r.loadPeriods(ctx, year); err != nil {
		return nil, err
	}
	return year, nil
}

// GetAll retrieves every fiscal year with periods, newest first.
func (r *FiscalYearRepository) GetAll(ctx context.Context) ([]*fiscal.Year, error) {
	query := `
		SELECT ` + fiscalYearColumns + `
		FROM fiscal_years
		WHERE deleted_at IS NULL
		ORDER BY year DESC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query fiscal years", "error", err)
		return nil, fmt.Errorf("failed to query fiscal years: %w", err)
	}
	defer rows.Close()

	var years []*fiscal.Year
	for rows.Next() {
		year, err := r.scanYear(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fiscal year: %w", err)
		}
		years = append(years, year)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fiscal years: %w", err)
	}

	for _, year := range years {
		if err := r.loadPeriods(ctx, year); err != nil {
			return nil, err
		}
	}

	return years, nil
}

// YearExists reports whether a fiscal year for the calendar year exists.
func (r *FiscalYearRepository) YearExists(ctx context.Context, calendarYear int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM fiscal_years WHERE year = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, calendarYear).Scan(&exists); err != nil {
		r.logger.Error("Failed to check fiscal year", "year", calendarYear, "error", err)
		return false, fmt.Errorf("failed to check fiscal year: %w", err)
	}
	return exists, nil
}

// Update persists the year and all of its periods. Optimistic locking guards
// the year row; period rows have no independent version and are written under
// the year's lock.
func (r *FiscalYearRepository) Update(ctx context.Context, year *fiscal.Year) error {
	yearQuery := `
		UPDATE fiscal_years
		SET status = $1, closed_at = $2, closed_by = $3, version = version + 1,
			updated_at = $4, updated_by = $5
		WHERE id = $6 AND version = $7
	`

	result, err := r.querier.Exec(ctx, yearQuery,
		year.Status,
		year.ClosedAt,
		year.ClosedBy,
		year.Lifecycle.UpdatedAt,
		year.Lifecycle.UpdatedBy,
		year.ID,
		year.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update fiscal year", "id", year.ID.String(), "error", err)
		return fmt.Errorf("failed to update fiscal year: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fiscal.ErrYearConcurrentModification{FiscalYearID: year.ID}
	}
	year.Version++

	periodQuery := `
		UPDATE fiscal_periods
		SET status = $1, locked_at = $2, locked_by = $3, unlock_reason = $4
		WHERE id = $5
	`
	for _, p := range year.Periods {
		if _, err := r.querier.Exec(ctx, periodQuery, p.Status, p.LockedAt, p.LockedBy, p.UnlockReason, p.ID); err != nil {
			r.logger.Error("Failed to update fiscal period", "id", p.ID.String(), "error", err)
			return fmt.Errorf("failed to update fiscal period %d: %w", p.Number, err)
		}
	}

	return nil
}

func (r *FiscalYearRepository) loadPeriods(ctx context.Context, year *fiscal.Year) error {
	query := `
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE fiscal_year_id = $1
		ORDER BY period_number
	`

	rows, err := r.querier.Query(ctx, query, year.ID)
	if err != nil {
		r.logger.Error("Failed to query fiscal periods", "fiscalYearID", year.ID.String(), "error", err)
		return fmt.Errorf("failed to query fiscal periods: %w", err)
	}
	defer rows.Close()

	year.Periods = year.Periods[:0]
	for rows.Next() {
		var p fiscal.Period
		err := rows.Scan(
			&p.ID,
			&p.FiscalYearID,
			&p.Number,
			&p.Year,
			&p.Month,
			&p.StartDate,
			&p.EndDate,
			&p.Status,
			&p.LockedAt,
			&p.LockedBy,
			&p.UnlockReason,
		)
		if err != nil {
			return fmt.Errorf("failed to scan fiscal period: %w", err)
		}
		year.Periods = append(year.Periods, &p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read fiscal periods: %w", err)
	}

	return nil
}

func (r *FiscalYearRepository) scanYear(row pgx.Row) (*fiscal.Year, error) {
	var year fiscal.Year
	err := row.Scan(
		&year.ID,
		&year.Year,
		&year.StartDate,
		&year.EndDate,
		&year.Status,
		&year.ClosedAt,
		&year.ClosedBy,
		&year.Version,
		&year.Lifecycle.CreatedAt,
		&year.Lifecycle.CreatedBy,
		&year.Lifecycle.UpdatedAt,
		&year.Lifecycle.UpdatedBy,
		&year.Lifecycle.DeletedAt,
		&year.Lifecycle.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return &year, nil
}
