package accounting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// FiscalYearServiceImpl implements the FiscalYearService interface
type FiscalYearServiceImpl struct {
	fiscalRepo  fiscal.Repository
	journalRepo journal.Repository
	closing     *ClosingEngine
	txManager   TxManager
	authorizer  shared.Authorizer
	currentUser shared.CurrentUser
	clock       shared.Clock
	audit       shared.AuditLogger
	logger      *slog.Logger
}

// NewFiscalYearService creates a new fiscal year service
func NewFiscalYearService(
	logger *slog.Logger,
	fiscalRepo fiscal.Repository,
	journalRepo journal.Repository,
	closing *ClosingEngine,
	txManager TxManager,
	authorizer shared.Authorizer,
	currentUser shared.CurrentUser,
	clock shared.Clock,
	audit shared.AuditLogger,
) FiscalYearService {
	return &FiscalYearServiceImpl{
		fiscalRepo:  fiscalRepo,
		journalRepo: journalRepo,
		closing:     closing,
		txManager:   txManager,
		authorizer:  authorizer,
		currentUser: currentUser,
		clock:       clock,
		audit:       audit,
		logger:      logger,
	}
}

// CreateFiscalYear creates a year in Setup with its twelve open periods
func (s *FiscalYearServiceImpl) CreateFiscalYear(ctx context.Context, calendarYear int) (*fiscal.Year, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionFiscalYearManage); err != nil {
		return nil, serviceError(err)
	}

	var created *fiscal.Year
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.fiscalRepo.WithTx(tx)

		exists, err := repo.YearExists(ctx, calendarYear)
		if err != nil {
			return err
		}
		if exists {
			return fiscal.ErrDuplicateYear{Year: calendarYear}
		}

		year, err := fiscal.NewYear(calendarYear, s.currentUser.Username(), s.clock.Now())
		if err != nil {
			return domainViolation(err)
		}
		if err := repo.Create(ctx, year); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "fiscal_year", year.ID, "create", s.currentUser.Username(),
			fmt.Sprintf("created fiscal year %d", year.Year)); err != nil {
			return err
		}

		created = year
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.logger.Info("fiscal year created", "year", created.Year, "id", created.ID.String())
	return created, nil
}

// ActivateFiscalYear transitions a year from Setup to Active. The check that
// no other year is Active runs inside a serializable transaction, so two
// concurrent activations cannot both succeed.
func (s *FiscalYearServiceImpl) ActivateFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionFiscalYearManage); err != nil {
		return nil, serviceError(err)
	}

	var activated *fiscal.Year
	err := s.txManager.ExecuteSerializableTx(ctx, func(tx pgx.Tx) error {
		repo := s.fiscalRepo.WithTx(tx)

		year, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		active, err := repo.GetActive(ctx)
		if err != nil {
			var noActive fiscal.ErrNoActiveYear
			if !errors.As(err, &noActive) {
				return err
			}
		}
		if active != nil && active.ID != id {
			return shared.DomainViolation(fmt.Sprintf("fiscal year %d is already active; close it before activating %d", active.Year, year.Year))
		}

		if err := year.Activate(); err != nil {
			return domainViolation(err)
		}
		year.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())

		if err := repo.Update(ctx, year); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "fiscal_year", year.ID, "activate", s.currentUser.Username(),
			fmt.Sprintf("activated fiscal year %d", year.Year)); err != nil {
			return err
		}

		activated = year
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.logger.Info("fiscal year activated", "year", activated.Year)
	return activated, nil
}

// CloseFiscalYear performs year-end closing in one serializable transaction:
// every period locked, zero drafts, trial balance in exact balance, the
// closing entry posted, and the year transitioned to Closed. A failure at any
// step leaves nothing behind.
func (s *FiscalYearServiceImpl) CloseFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionFiscalYearManage); err != nil {
		return nil, serviceError(err)
	}

	var closed *fiscal.Year
	err := s.txManager.ExecuteSerializableTx(ctx, func(tx pgx.Tx) error {
		repo := s.fiscalRepo.WithTx(tx)
		journals := s.journalRepo.WithTx(tx)

		year, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if year.Status != fiscal.YearStatusActive {
			if year.Status == fiscal.YearStatusClosed {
				return domainViolation(fiscal.ErrYearIsClosed)
			}
			return domainViolation(fiscal.ErrCloseRequiresActive)
		}
		for _, p := range year.Periods {
			if p.Status != fiscal.PeriodStatusLocked {
				return shared.DomainViolation(fmt.Sprintf("period %d must be locked before closing the year", p.Number))
			}
		}

		drafts, err := journals.CountDraftsByYear(ctx, year.ID)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return shared.DomainViolation(fmt.Sprintf("%d draft entries must be posted or deleted before closing the year", drafts))
		}

		activity, err := journals.GetPostedActivityByYear(ctx, year.ID)
		if err != nil {
			return err
		}
		if err := verifyTrialBalance(activity); err != nil {
			return err
		}

		if err := s.closing.Run(ctx, tx, year, activity); err != nil {
			return err
		}

		if err := year.Close(s.currentUser.Username(), s.clock.Now()); err != nil {
			return domainViolation(err)
		}
		year.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())

		if err := repo.Update(ctx, year); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "fiscal_year", year.ID, "close", s.currentUser.Username(),
			fmt.Sprintf("closed fiscal year %d", year.Year)); err != nil {
			return err
		}

		closed = year
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.logger.Info("fiscal year closed", "year", closed.Year)
	return closed, nil
}

// LockPeriod locks the next period in sequence. A period holding draft
// entries cannot be locked; the drafts must be posted or deleted first.
func (s *FiscalYearServiceImpl) LockPeriod(ctx context.Context, yearID uuid.UUID, periodNumber int) (*fiscal.Year, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionFiscalPeriodManage); err != nil {
		return nil, serviceError(err)
	}

	var locked *fiscal.Year
	err := s.txManager.ExecuteSerializableTx(ctx, func(tx pgx.Tx) error {
		repo := s.fiscalRepo.WithTx(tx)

		year, err := repo.GetByID(ctx, yearID)
		if err != nil {
			return err
		}
		period, err := year.PeriodByNumber(periodNumber)
		if err != nil {
			return domainViolation(err)
		}

		drafts, err := s.journalRepo.WithTx(tx).CountDraftsByPeriod(ctx, period.ID)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return shared.DomainViolation(fmt.Sprintf("period %d holds %d draft entries; post or delete them before locking", periodNumber, drafts))
		}

		if err := year.LockPeriod(periodNumber, s.currentUser.Username(), s.clock.Now()); err != nil {
			return domainViolation(err)
		}
		year.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())

		if err := repo.Update(ctx, year); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "fiscal_period", period.ID, "lock", s.currentUser.Username(),
			fmt.Sprintf("locked period %d of fiscal year %d", periodNumber, year.Year)); err != nil {
			return err
		}

		locked = year
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return locked, nil
}

// UnlockPeriod reopens the most recently locked period, recording the
// mandatory justification.
func (s *FiscalYearServiceImpl) UnlockPeriod(ctx context.Context, yearID uuid.UUID, periodNumber int, reason string) (*fiscal.Year, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionFiscalPeriodManage); err != nil {
		return nil, serviceError(err)
	}

	var unlocked *fiscal.Year
	err := s.txManager.ExecuteSerializableTx(ctx, func(tx pgx.Tx) error {
		repo := s.fiscalRepo.WithTx(tx)

		year, err := repo.GetByID(ctx, yearID)
		if err != nil {
			return err
		}
		period, err := year.PeriodByNumber(periodNumber)
		if err != nil {
			return domainViolation(err)
		}

		if err := year.UnlockPeriod(periodNumber, reason); err != nil {
			return domainViolation(err)
		}
		year.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())

		if err := repo.Update(ctx, year); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "fiscal_period", period.ID, "unlock", s.currentUser.Username(),
			fmt.Sprintf("unlocked period %d of fiscal year %d: %s", periodNumber, year.Year, reason)); err != nil {
			return err
		}

		unlocked = year
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return unlocked, nil
}

// GetFiscalYear retrieves a year with its periods
func (s *FiscalYearServiceImpl) GetFiscalYear(ctx context.Context, id uuid.UUID) (*fiscal.Year, error) {
	year, err := s.fiscalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, serviceError(err)
	}
	return year, nil
}

// GetActiveFiscalYear retrieves the single Active year
func (s *FiscalYearServiceImpl) GetActiveFiscalYear(ctx context.Context) (*fiscal.Year, error) {
	year, err := s.fiscalRepo.GetActive(ctx)
	if err != nil {
		return nil, serviceError(err)
	}
	return year, nil
}

// ListFiscalYears returns all years, newest first
func (s *FiscalYearServiceImpl) ListFiscalYears(ctx context.Context) ([]*fiscal.Year, error) {
	years, err := s.fiscalRepo.GetAll(ctx)
	if err != nil {
		return nil, serviceError(err)
	}
	return years, nil
}

// verifyTrialBalance checks that the posted activity of the year balances
// exactly: decimal sums, no tolerance.
func verifyTrialBalance(activity []journal.AccountActivity) error {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, a := range activity {
		totalDebit = totalDebit.Add(a.TotalDebit)
		totalCredit = totalCredit.Add(a.TotalCredit)
	}
	if !totalDebit.Equal(totalCredit) {
		return shared.DomainViolation(fmt.Sprintf("trial balance is out of balance: total debit %s, total credit %s, difference %s",
			totalDebit.String(), totalCredit.String(), totalDebit.Sub(totalCredit).String()))
	}
	return nil
}
