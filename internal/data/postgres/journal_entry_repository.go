package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/platform/persistence"
)

const journalEntryColumns = `id, journal_number, draft_code, journal_date, description, reference_number,
		status, source, source_id, fiscal_year_id, fiscal_period_id, cost_center, posted_at, posted_by,
		reversed_entry_id, reversal_entry_id, adjusted_entry_id, reversal_reason, version,
		created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

const journalLineColumns = `id, journal_entry_id, line_number, account_id, debit, credit,
		description, cost_center, location, created_at`

// JournalEntryRepository implements the journal.Repository interface for
// PostgreSQL. Entries are always persisted and loaded with their full line set.
type JournalEntryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewJournalEntryRepository creates a new PostgreSQL journal entry repository.
func NewJournalEntryRepository(logger *slog.Logger, db *persistence.PostgresDB) journal.Repository {
	return &JournalEntryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *JournalEntryRepository) WithTx(tx pgx.Tx) journal.Repository {
	return &JournalEntryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a journal entry with all of its lines.
func (r *JournalEntryRepository) Create(ctx context.Context, entry *journal.Entry) error {
	query := `
		INSERT INTO journal_entries (` + journalEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.JournalNumber,
		entry.DraftCode,
		entry.JournalDate,
		entry.Description,
		entry.ReferenceNumber,
		entry.Status,
		entry.Source,
		entry.SourceID,
		entry.FiscalYearID,
		entry.FiscalPeriodID,
		entry.CostCenter,
		entry.PostedAt,
		entry.PostedBy,
		entry.ReversedEntryID,
		entry.ReversalEntryID,
		entry.AdjustedEntryID,
		entry.ReversalReason,
		entry.Version,
		entry.Lifecycle.CreatedAt,
		entry.Lifecycle.CreatedBy,
		entry.Lifecycle.UpdatedAt,
		entry.Lifecycle.UpdatedBy,
		entry.Lifecycle.DeletedAt,
		entry.Lifecycle.DeletedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return journal.ErrDuplicateJournalNumber{JournalNumber: entry.JournalNumber}
		}
		r.logger.Error("Failed to create journal entry", "draftCode", entry.DraftCode, "error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return r.insertLines(ctx, entry)
}

// GetByID retrieves a journal entry with its lines by ID.
func (r *JournalEntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE id = $1 AND deleted_at IS NULL
	`

	entry, err := r.scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, journal.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get journal entry", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	if err := r.loadLines(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByJournalNumber retrieves a posted entry by its permanent journal number.
// Returns nil, nil when no entry carries the number.
func (r *JournalEntryRepository) GetByJournalNumber(ctx context.Context, journalNumber string) (*journal.Entry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE journal_number = $1 AND deleted_at IS NULL
	`

	entry, err := r.scanEntry(r.querier.QueryRow(ctx, query, journalNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get journal entry by number", "journalNumber", journalNumber, "error", err)
		return nil, fmt.Errorf("failed to get journal entry by number: %w", err)
	}

	if err := r.loadLines(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByPeriod retrieves all entries dated in a fiscal period, with lines.
func (r *JournalEntryRepository) GetByPeriod(ctx context.Context, fiscalPeriodID uuid.UUID) ([]*journal.Entry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE fiscal_period_id = $1 AND deleted_at IS NULL
		ORDER BY journal_date, created_at
	`

	return r.queryEntries(ctx, query, fiscalPeriodID)
}

// GetByStatus retrieves all entries of a fiscal year in one status, with lines.
func (r *JournalEntryRepository) GetByStatus(ctx context.Context, fiscalYearID uuid.UUID, status journal.Status) ([]*journal.Entry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE fiscal_year_id = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY journal_date, created_at
	`

	return r.queryEntries(ctx, query, fiscalYearID, status)
}

// CountDraftsByYear counts the non-deleted draft entries of a fiscal year.
func (r *JournalEntryRepository) CountDraftsByYear(ctx context.Context, fiscalYearID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM journal_entries
		WHERE fiscal_year_id = $1 AND status = $2 AND deleted_at IS NULL
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, fiscalYearID, journal.StatusDraft).Scan(&count); err != nil {
		r.logger.Error("Failed to count drafts by year", "fiscalYearID", fiscalYearID.String(), "error", err)
		return 0, fmt.Errorf("failed to count drafts by year: %w", err)
	}
	return count, nil
}

// CountDraftsByPeriod counts the non-deleted draft entries dated in a period.
func (r *JournalEntryRepository) CountDraftsByPeriod(ctx context.Context, fiscalPeriodID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM journal_entries
		WHERE fiscal_period_id = $1 AND status = $2 AND deleted_at IS NULL
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, fiscalPeriodID, journal.StatusDraft).Scan(&count); err != nil {
		r.logger.Error("Failed to count drafts by period", "fiscalPeriodID", fiscalPeriodID.String(), "error", err)
		return 0, fmt.Errorf("failed to count drafts by period: %w", err)
	}
	return count, nil
}

// GetPostedActivityByYear aggregates the posted lines of a fiscal year per
// account. Reversed entries stay included: their mirrored postings cancel out
// in the sums.
func (r *JournalEntryRepository) GetPostedActivityByYear(ctx context.Context, fiscalYearID uuid.UUID) ([]journal.AccountActivity, error) {
	query := `
		SELECT l.account_id, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.id = l.journal_entry_id
		WHERE e.fiscal_year_id = $1 AND e.status IN ($2, $3) AND e.deleted_at IS NULL
		GROUP BY l.account_id
		ORDER BY l.account_id
	`

	rows, err := r.querier.Query(ctx, query, fiscalYearID, journal.StatusPosted, journal.StatusReversed)
	if err != nil {
		r.logger.Error("Failed to aggregate posted activity", "fiscalYearID", fiscalYearID.String(), "error", err)
		return nil, fmt.Errorf("failed to aggregate posted activity: %w", err)
	}
	defer rows.Close()

	var activity []journal.AccountActivity
	for rows.Next() {
		var a journal.AccountActivity
		if err := rows.Scan(&a.AccountID, &a.TotalDebit, &a.TotalCredit); err != nil {
			return nil, fmt.Errorf("failed to scan posted activity: %w", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posted activity: %w", err)
	}

	return activity, nil
}

// HasPostedEntryBySource reports whether the fiscal year already holds a
// posted (or reversed) entry of the given source. Used as the idempotency
// guard for year-end closing.
func (r *JournalEntryRepository) HasPostedEntryBySource(ctx context.Context, fiscalYearID uuid.UUID, source string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM journal_entries
			WHERE fiscal_year_id = $1 AND source = $2 AND status IN ($3, $4) AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, fiscalYearID, source, journal.StatusPosted, journal.StatusReversed).Scan(&exists); err != nil {
		r.logger.Error("Failed to check posted entry by source", "fiscalYearID", fiscalYearID.String(), "source", source, "error", err)
		return false, fmt.Errorf("failed to check posted entry by source: %w", err)
	}
	return exists, nil
}

// HasPostedLinesForAccount reports whether any posted or reversed entry
// carries a line against the account.
func (r *JournalEntryRepository) HasPostedLinesForAccount(ctx context.Context, accountID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM journal_entry_lines l
			JOIN journal_entries e ON e.id = l.journal_entry_id
			WHERE l.account_id = $1 AND e.status IN ($2, $3) AND e.deleted_at IS NULL
		)
	`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, accountID, journal.StatusPosted, journal.StatusReversed).Scan(&exists); err != nil {
		r.logger.Error("Failed to check posted lines for account", "accountID", accountID.String(), "error", err)
		return false, fmt.Errorf("failed to check posted lines for account: %w", err)
	}
	return exists, nil
}

// Update persists the entry header with optimistic locking, then rewrites its
// lines. Draft edits replace the line set wholesale, so delete-and-reinsert
// keeps the rows in step with the aggregate.
func (r *JournalEntryRepository) Update(ctx context.Context, entry *journal.Entry) error {
	query := `
		UPDATE journal_entries
		SET journal_number = $1, journal_date = $2, description = $3, reference_number = $4,
			status = $5, cost_center = $6, posted_at = $7, posted_by = $8, reversed_entry_id = $9,
			reversal_entry_id = $10, adjusted_entry_id = $11, reversal_reason = $12,
			version = version + 1, updated_at = $13, updated_by = $14, deleted_at = $15, deleted_by = $16
		WHERE id = $17 AND version = $18
	`

	result, err := r.querier.Exec(ctx, query,
		entry.JournalNumber,
		entry.JournalDate,
		entry.Description,
		entry.ReferenceNumber,
		entry.Status,
		entry.CostCenter,
		entry.PostedAt,
		entry.PostedBy,
		entry.ReversedEntryID,
		entry.ReversalEntryID,
		entry.AdjustedEntryID,
		entry.ReversalReason,
		entry.Lifecycle.UpdatedAt,
		entry.Lifecycle.UpdatedBy,
		entry.Lifecycle.DeletedAt,
		entry.Lifecycle.DeletedBy,
		entry.ID,
		entry.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return journal.ErrDuplicateJournalNumber{JournalNumber: entry.JournalNumber}
		}
		r.logger.Error("Failed to update journal entry", "id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to update journal entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return journal.ErrEntryConcurrentModification{EntryID: entry.ID}
	}
	entry.Version++

	if _, err := r.querier.Exec(ctx, `DELETE FROM journal_entry_lines WHERE journal_entry_id = $1`, entry.ID); err != nil {
		r.logger.Error("Failed to clear journal entry lines", "id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to clear journal entry lines: %w", err)
	}

	return r.insertLines(ctx, entry)
}

func (r *JournalEntryRepository) insertLines(ctx context.Context, entry *journal.Entry) error {
	query := `
		INSERT INTO journal_entry_lines (` + journalLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, l := range entry.Lines {
		_, err := r.querier.Exec(ctx, query,
			l.ID,
			l.JournalEntryID,
			l.LineNumber,
			l.AccountID,
			l.Debit,
			l.Credit,
			l.Description,
			l.CostCenter,
			l.Location,
			l.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create journal entry line", "entryID", entry.ID.String(), "line", l.LineNumber, "error", err)
			return fmt.Errorf("failed to create journal entry line %d: %w", l.LineNumber, err)
		}
	}

	return nil
}

func (r *JournalEntryRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*journal.Entry, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query journal entries", "error", err)
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*journal.Entry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal entries: %w", err)
	}

	for _, entry := range entries {
		if err := r.loadLines(ctx, entry); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (r *JournalEntryRepository) loadLines(ctx context.Context, entry *journal.Entry) error {
	query := `
		SELECT ` + journalLineColumns + `
		FROM journal_entry_lines
		WHERE journal_entry_id = $1
		ORDER BY line_number
	`

	rows, err := r.querier.Query(ctx, query, entry.ID)
	if err != nil {
		r.logger.Error("Failed to query journal entry lines", "entryID", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to query journal entry lines: %w", err)
	}
	defer rows.Close()

	entry.Lines = entry.Lines[:0]
	for rows.Next() {
		var l journal.Line
		err := rows.Scan(
			&l.ID,
			&l.JournalEntryID,
			&l.LineNumber,
			&l.AccountID,
			&l.Debit,
			&l.Credit,
			&l.Description,
			&l.CostCenter,
			&l.Location,
			&l.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan journal entry line: %w", err)
		}
		entry.Lines = append(entry.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read journal entry lines: %w", err)
	}

	return nil
}

func (r *JournalEntryRepository) scanEntry(row pgx.Row) (*journal.Entry, error) {
	var entry journal.Entry
	err := row.Scan(
		&entry.ID,
		&entry.JournalNumber,
		&entry.DraftCode,
		&entry.JournalDate,
		&entry.Description,
		&entry.ReferenceNumber,
		&entry.Status,
		&entry.Source,
		&entry.SourceID,
		&entry.FiscalYearID,
		&entry.FiscalPeriodID,
		&entry.CostCenter,
		&entry.PostedAt,
		&entry.PostedBy,
		&entry.ReversedEntryID,
		&entry.ReversalEntryID,
		&entry.AdjustedEntryID,
		&entry.ReversalReason,
		&entry.Version,
		&entry.Lifecycle.CreatedAt,
		&entry.Lifecycle.CreatedBy,
		&entry.Lifecycle.UpdatedAt,
		&entry.Lifecycle.UpdatedBy,
		&entry.Lifecycle.DeletedAt,
		&entry.Lifecycle.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
