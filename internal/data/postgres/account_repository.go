// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the general ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marco-erp/ledger-core/internal/domain/account"
	"github.com/marco-erp/ledger-core/internal/platform/persistence"
)

const accountColumns = `id, code, name_ar, name_en, account_type, normal_balance, parent_id, level,
		is_leaf, allow_posting, is_active, is_system_account, has_postings, description, version,
		created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls. The returned repository will use the provided
// transaction for all database operations.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account. A duplicate code maps the unique-constraint
// violation to account.ErrDuplicateCode.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Code,
		acc.NameAr,
		acc.NameEn,
		acc.Type,
		acc.NormalBalance,
		acc.ParentID,
		acc.Level,
		acc.IsLeaf,
		acc.AllowPosting,
		acc.IsActive,
		acc.IsSystemAccount,
		acc.HasPostings,
		acc.Description,
		acc.Version,
		acc.Lifecycle.CreatedAt,
		acc.Lifecycle.CreatedBy,
		acc.Lifecycle.UpdatedAt,
		acc.Lifecycle.UpdatedBy,
		acc.Lifecycle.DeletedAt,
		acc.Lifecycle.DeletedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrDuplicateCode{Code: acc.Code}
		}
		r.logger.Error("Failed to create account", "code", acc.Code, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND deleted_at IS NULL
	`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByCode retrieves an account by its code. Returns nil, nil when no account
// carries the code, so callers can distinguish absence from failure.
func (r *AccountRepository) GetByCode(ctx context.Context, code string) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE code = $1 AND deleted_at IS NULL
	`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by code", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get account by code: %w", err)
	}

	return acc, nil
}

// GetAll retrieves every non-deleted account ordered by code, which is also
// hierarchical order for a 4-digit chart.
func (r *AccountRepository) GetAll(ctx context.Context) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE deleted_at IS NULL
		ORDER BY code
	`

	return r.queryAccounts(ctx, query)
}

// GetByType retrieves accounts of one classification ordered by code.
func (r *AccountRepository) GetByType(ctx context.Context, accountType account.Type) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_type = $1 AND deleted_at IS NULL
		ORDER BY code
	`

	return r.queryAccounts(ctx, query, accountType)
}

// GetPostable retrieves accounts eligible for journal lines: active leaves
// with posting allowed.
func (r *AccountRepository) GetPostable(ctx context.Context) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE is_active = TRUE AND is_leaf = TRUE AND allow_posting = TRUE AND deleted_at IS NULL
		ORDER BY code
	`

	return r.queryAccounts(ctx, query)
}

// GetChildren retrieves the direct children of an account ordered by code.
func (r *AccountRepository) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE parent_id = $1 AND deleted_at IS NULL
		ORDER BY code
	`

	return r.queryAccounts(ctx, query, parentID)
}

// CodeExists reports whether a non-deleted account already carries the code.
func (r *AccountRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE code = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		r.logger.Error("Failed to check account code", "code", code, "error", err)
		return false, fmt.Errorf("failed to check account code: %w", err)
	}
	return exists, nil
}

// HasChildren reports whether any non-deleted account references this one as parent.
func (r *AccountRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE parent_id = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check account children", "id", id.String(), "error", err)
		return false, fmt.Errorf("failed to check account children: %w", err)
	}
	return exists, nil
}

// Update persists the account with optimistic locking on the version column.
// Returns ErrConcurrentModification if the row changed since it was read.
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET name_ar = $1, name_en = $2, account_type = $3, normal_balance = $4, is_leaf = $5,
			allow_posting = $6, is_active = $7, has_postings = $8, description = $9,
			version = version + 1, updated_at = $10, updated_by = $11, deleted_at = $12, deleted_by = $13
		WHERE id = $14 AND version = $15
	`

	result, err := r.querier.Exec(ctx, query,
		acc.NameAr,
		acc.NameEn,
		acc.Type,
		acc.NormalBalance,
		acc.IsLeaf,
		acc.AllowPosting,
		acc.IsActive,
		acc.HasPostings,
		acc.Description,
		acc.Lifecycle.UpdatedAt,
		acc.Lifecycle.UpdatedBy,
		acc.Lifecycle.DeletedAt,
		acc.Lifecycle.DeletedBy,
		acc.ID,
		acc.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}
	acc.Version++

	return nil
}

func (r *AccountRepository) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]*account.Account, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query accounts", "error", err)
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := r.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.Code,
		&acc.NameAr,
		&acc.NameEn,
		&acc.Type,
		&acc.NormalBalance,
		&acc.ParentID,
		&acc.Level,
		&acc.IsLeaf,
		&acc.AllowPosting,
		&acc.IsActive,
		&acc.IsSystemAccount,
		&acc.HasPostings,
		&acc.Description,
		&acc.Version,
		&acc.Lifecycle.CreatedAt,
		&acc.Lifecycle.CreatedBy,
		&acc.Lifecycle.UpdatedAt,
		&acc.Lifecycle.UpdatedBy,
		&acc.Lifecycle.DeletedAt,
		&acc.Lifecycle.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
