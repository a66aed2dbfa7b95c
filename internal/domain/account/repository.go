package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines chart-of-accounts persistence operations
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByCode(ctx context.Context, code string) (*Account, error)
	GetAll(ctx context.Context) ([]*Account, error)
	GetByType(ctx context.Context, accountType Type) ([]*Account, error)
	GetPostable(ctx context.Context) ([]*Account, error)
	GetChildren(ctx context.Context, parentID uuid.UUID) ([]*Account, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)

	// Update persists the account with optimistic locking on Version.
	Update(ctx context.Context, acc *Account) error

	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// ErrDuplicateCode indicates account code uniqueness violation
type ErrDuplicateCode struct {
	Code string
}

func (e ErrDuplicateCode) Error() string {
	return "account with code already exists: " + e.Code
}
