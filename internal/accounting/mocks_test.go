package accounting

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/marco-erp/ledger-core/internal/domain/account"
	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// immediateTxManager runs the callback inline with a nil transaction. The
// mocked repositories never touch the tx, so nil is safe here.
type immediateTxManager struct{}

func (immediateTxManager) ExecuteTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

func (immediateTxManager) ExecuteSerializableTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

// denyAll refuses every permission check.
type denyAll struct{}

func (denyAll) Allow(_ context.Context, user shared.CurrentUser, permission shared.Permission) error {
	return shared.AuthorizationFailure(user.Username(), string(permission))
}

// fixedClock returns the same instant on every call.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// nopAudit discards audit events.
type nopAudit struct{}

func (nopAudit) Log(context.Context, pgx.Tx, string, uuid.UUID, string, string, string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByCode(ctx context.Context, code string) (*account.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*account.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByType(ctx context.Context, accountType account.Type) ([]*account.Account, error) {
	args := m.Called(ctx, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetPostable(ctx context.Context) ([]*account.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*account.Account, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockFiscalRepository struct {
	mock.Mock
}

func (m *MockFiscalRepository) Create(ctx context.Context, year *fiscal.Year) error {
	args := m.Called(ctx, year)
	return args.Error(0)
}

func (m *MockFiscalRepository) GetByID(ctx context.Context, id uuid.UUID) (*fiscal.Year, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalRepository) GetByYear(ctx context.Context, year int) (*fiscal.Year, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalRepository) GetActive(ctx context.Context) (*fiscal.Year, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Year), args.Error(1)
}

func (m *MockFiscalRepository) GetAll(ctx context.Context) ([]*fiscal.Year, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fiscal.Year), args.Error(1)
}

func (m *MockFiscalRepository) YearExists(ctx context.Context, year int) (bool, error) {
	args := m.Called(ctx, year)
	return args.Bool(0), args.Error(1)
}

func (m *MockFiscalRepository) Update(ctx context.Context, year *fiscal.Year) error {
	args := m.Called(ctx, year)
	return args.Error(0)
}

func (m *MockFiscalRepository) WithTx(tx pgx.Tx) fiscal.Repository {
	return m
}

type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) GetByID(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *MockJournalRepository) GetByJournalNumber(ctx context.Context, journalNumber string) (*journal.Entry, error) {
	args := m.Called(ctx, journalNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *MockJournalRepository) GetByPeriod(ctx context.Context, fiscalPeriodID uuid.UUID) ([]*journal.Entry, error) {
	args := m.Called(ctx, fiscalPeriodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockJournalRepository) GetByStatus(ctx context.Context, fiscalYearID uuid.UUID, status journal.Status) ([]*journal.Entry, error) {
	args := m.Called(ctx, fiscalYearID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockJournalRepository) CountDraftsByYear(ctx context.Context, fiscalYearID uuid.UUID) (int, error) {
	args := m.Called(ctx, fiscalYearID)
	return args.Int(0), args.Error(1)
}

func (m *MockJournalRepository) CountDraftsByPeriod(ctx context.Context, fiscalPeriodID uuid.UUID) (int, error) {
	args := m.Called(ctx, fiscalPeriodID)
	return args.Int(0), args.Error(1)
}

func (m *MockJournalRepository) GetPostedActivityByYear(ctx context.Context, fiscalYearID uuid.UUID) ([]journal.AccountActivity, error) {
	args := m.Called(ctx, fiscalYearID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]journal.AccountActivity), args.Error(1)
}

func (m *MockJournalRepository) HasPostedEntryBySource(ctx context.Context, fiscalYearID uuid.UUID, source string) (bool, error) {
	args := m.Called(ctx, fiscalYearID, source)
	return args.Bool(0), args.Error(1)
}

func (m *MockJournalRepository) HasPostedLinesForAccount(ctx context.Context, accountID uuid.UUID) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockJournalRepository) Update(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) WithTx(tx pgx.Tx) journal.Repository {
	return m
}

type MockSequenceGenerator struct {
	mock.Mock
}

func (m *MockSequenceGenerator) NextNumber(ctx context.Context, tx pgx.Tx, fiscalYearID uuid.UUID) (string, error) {
	args := m.Called(ctx, tx, fiscalYearID)
	return args.String(0), args.Error(1)
}

var (
	_ account.Repository       = (*MockAccountRepository)(nil)
	_ fiscal.Repository        = (*MockFiscalRepository)(nil)
	_ journal.Repository       = (*MockJournalRepository)(nil)
	_ shared.SequenceGenerator = (*MockSequenceGenerator)(nil)
	_ TxManager                = immediateTxManager{}
	_ shared.Authorizer        = denyAll{}
	_ shared.Clock             = fixedClock{}
	_ shared.AuditLogger       = nopAudit{}
)
