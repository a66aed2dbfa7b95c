package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
)

var fiscalYearColumnNames = []string{
	"id", "year", "start_date", "end_date", "status", "closed_at", "closed_by", "version",
	"created_at", "created_by", "updated_at", "updated_by", "deleted_at", "deleted_by",
}

var fiscalPeriodColumnNames = []string{
	"id", "fiscal_year_id", "period_number", "year", "month", "start_date", "end_date",
	"status", "locked_at", "locked_by", "unlock_reason",
}

func newTestYear(t *testing.T) *fiscal.Year {
	t.Helper()
	year, err := fiscal.NewYear(2025, "tester", time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return year
}

func yearRow(year *fiscal.Year) *pgxmock.Rows {
	return pgxmock.NewRows(fiscalYearColumnNames).AddRow(
		year.ID, year.Year, year.StartDate, year.EndDate, year.Status, year.ClosedAt, year.ClosedBy, year.Version,
		year.Lifecycle.CreatedAt, year.Lifecycle.CreatedBy, year.Lifecycle.UpdatedAt, year.Lifecycle.UpdatedBy,
		year.Lifecycle.DeletedAt, year.Lifecycle.DeletedBy,
	)
}

func periodRows(year *fiscal.Year) *pgxmock.Rows {
	rows := pgxmock.NewRows(fiscalPeriodColumnNames)
	for _, p := range year.Periods {
		rows.AddRow(p.ID, p.FiscalYearID, p.Number, p.Year, p.Month, p.StartDate, p.EndDate,
			p.Status, p.LockedAt, p.LockedBy, p.UnlockReason)
	}
	return rows
}

func TestFiscalYearRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FiscalYearRepository{querier: mock, logger: logger}
	year := newTestYear(t)

	yearQuery := regexp.QuoteMeta(`
		INSERT INTO fiscal_years (` + fiscalYearColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`)
	periodQuery := regexp.QuoteMeta(`
		INSERT INTO fiscal_periods (` + fiscalPeriodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)

	t.Run("success writes year and twelve periods", func(t *testing.T) {
		mock.ExpectExec(yearQuery).
			WithArgs(
				year.ID, year.Year, year.StartDate, year.EndDate, year.Status, year.ClosedAt, year.ClosedBy, year.Version,
				year.Lifecycle.CreatedAt, year.Lifecycle.CreatedBy, year.Lifecycle.UpdatedAt, year.Lifecycle.UpdatedBy,
				year.Lifecycle.DeletedAt, year.Lifecycle.DeletedBy,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		for _, p := range year.Periods {
			mock.ExpectExec(periodQuery).
				WithArgs(p.ID, p.FiscalYearID, p.Number, p.Year, p.Month, p.StartDate, p.EndDate,
					p.Status, p.LockedAt, p.LockedBy, p.UnlockReason).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}

		err := repo.Create(ctx, year)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate year", func(t *testing.T) {
		mock.ExpectExec(yearQuery).
			WithArgs(
				year.ID, year.Year, year.StartDate, year.EndDate, year.Status, year.ClosedAt, year.ClosedBy, year.Version,
				year.Lifecycle.CreatedAt, year.Lifecycle.CreatedBy, year.Lifecycle.UpdatedAt, year.Lifecycle.UpdatedBy,
				year.Lifecycle.DeletedAt, year.Lifecycle.DeletedBy,
			).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, year)
		var dupErr fiscal.ErrDuplicateYear
		assert.ErrorAs(t, err, &dupErr)
		assert.Equal(t, year.Year, dupErr.Year)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFiscalYearRepository_GetActive(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FiscalYearRepository{querier: mock, logger: logger}
	year := newTestYear(t)
	year.Status = fiscal.YearStatusActive

	yearQuery := regexp.QuoteMeta(`
		SELECT ` + fiscalYearColumns + `
		FROM fiscal_years
		WHERE status = $1 AND deleted_at IS NULL
	`)
	periodQuery := regexp.QuoteMeta(`
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE fiscal_year_id = $1
		ORDER BY period_number
	`)

	t.Run("success loads periods", func(t *testing.T) {
		mock.ExpectQuery(yearQuery).WithArgs(fiscal.YearStatusActive).WillReturnRows(yearRow(year))
		mock.ExpectQuery(periodQuery).WithArgs(year.ID).WillReturnRows(periodRows(year))

		got, err := repo.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, year.ID, got.ID)
		require.Len(t, got.Periods, 12)
		assert.Equal(t, 1, got.Periods[0].Number)
		assert.Equal(t, 12, got.Periods[11].Number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active year", func(t *testing.T) {
		mock.ExpectQuery(yearQuery).WithArgs(fiscal.YearStatusActive).WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetActive(ctx)
		assert.Nil(t, got)
		var noActive fiscal.ErrNoActiveYear
		assert.ErrorAs(t, err, &noActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFiscalYearRepository_Update(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FiscalYearRepository{querier: mock, logger: logger}

	yearQuery := regexp.QuoteMeta(`
		UPDATE fiscal_years
		SET status = $1, closed_at = $2, closed_by = $3, version = version + 1,
			updated_at = $4, updated_by = $5
		WHERE id = $6 AND version = $7
	`)
	periodQuery := regexp.QuoteMeta(`
		UPDATE fiscal_periods
		SET status = $1, locked_at = $2, locked_by = $3, unlock_reason = $4
		WHERE id = $5
	`)

	t.Run("success writes year and all periods", func(t *testing.T) {
		year := newTestYear(t)
		mock.ExpectExec(yearQuery).
			WithArgs(year.Status, year.ClosedAt, year.ClosedBy,
				year.Lifecycle.UpdatedAt, year.Lifecycle.UpdatedBy, year.ID, 1).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		for _, p := range year.Periods {
			mock.ExpectExec(periodQuery).
				WithArgs(p.Status, p.LockedAt, p.LockedBy, p.UnlockReason, p.ID).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		}

		err := repo.Update(ctx, year)
		assert.NoError(t, err)
		assert.Equal(t, 2, year.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent modification", func(t *testing.T) {
		year := newTestYear(t)
		mock.ExpectExec(yearQuery).
			WithArgs(year.Status, year.ClosedAt, year.ClosedBy,
				year.Lifecycle.UpdatedAt, year.Lifecycle.UpdatedBy, year.ID, 1).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(ctx, year)
		var conflictErr fiscal.ErrYearConcurrentModification
		assert.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, year.ID, conflictErr.FiscalYearID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFiscalYearRepository_YearExists(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FiscalYearRepository{querier: mock, logger: logger}
	query := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM fiscal_years WHERE year = $1 AND deleted_at IS NULL)`)

	mock.ExpectQuery(query).WithArgs(2025).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.YearExists(ctx, 2025)
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFiscalYearRepository_GetByYear_NotFound(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FiscalYearRepository{querier: mock, logger: logger}
	query := regexp.QuoteMeta(`
		SELECT ` + fiscalYearColumns + `
		FROM fiscal_years
		WHERE year = $1 AND deleted_at IS NULL
	`)

	mock.ExpectQuery(query).WithArgs(2030).WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByYear(ctx, 2030)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFiscalYearRepository_GetByID_DBError(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &FiscalYearRepository{querier: mock, logger: logger}
	year := newTestYear(t)
	dbErr := errors.New("connection reset")

	query := regexp.QuoteMeta(`
		SELECT ` + fiscalYearColumns + `
		FROM fiscal_years
		WHERE id = $1 AND deleted_at IS NULL
	`)

	mock.ExpectQuery(query).WithArgs(year.ID).WillReturnError(dbErr)

	got, err := repo.GetByID(ctx, year.ID)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
