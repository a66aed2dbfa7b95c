package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Clock supplies the current timestamp. Pure read, no side effects.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// CurrentUser supplies the acting user's identity.
type CurrentUser interface {
	Username() string
}

// StaticUser is a CurrentUser with a fixed username, used for wiring and tests.
type StaticUser string

func (u StaticUser) Username() string {
	return string(u)
}

// Permission names a capability a caller must hold for an operation.
type Permission string

const (
	PermissionAccountsCreate     Permission = "accounts.create"
	PermissionAccountsEdit       Permission = "accounts.edit"
	PermissionAccountsDelete     Permission = "accounts.delete"
	PermissionFiscalYearManage   Permission = "fiscal_year.manage"
	PermissionFiscalPeriodManage Permission = "fiscal_period.manage"
	PermissionJournalCreate      Permission = "journal.create"
	PermissionJournalPost        Permission = "journal.post"
	PermissionJournalReverse     Permission = "journal.reverse"
)

// Authorizer answers pass/fail capability checks. Denials are returned as an
// error of kind KindAuthorization.
type Authorizer interface {
	Allow(ctx context.Context, user CurrentUser, permission Permission) error
}

// AllowAll is an Authorizer that grants every capability.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, CurrentUser, Permission) error {
	return nil
}

// SequenceGenerator produces journal numbers that are monotonically increasing
// and unique per fiscal year, even under concurrent callers. It must run on
// the caller's transaction so a rolled-back posting does not burn a number
// visible to readers of the committed sequence.
type SequenceGenerator interface {
	NextNumber(ctx context.Context, tx pgx.Tx, fiscalYearID uuid.UUID) (string, error)
}

// AuditLogger records audit events. Writes ride the caller's transaction so an
// aborted workflow leaves no audit trace of effects that never happened.
type AuditLogger interface {
	Log(ctx context.Context, tx pgx.Tx, entity string, entityID uuid.UUID, action, username, details string) error
}
