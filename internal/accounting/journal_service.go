package accounting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marco-erp/ledger-core/internal/domain/account"
	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// JournalServiceImpl implements the JournalService interface
type JournalServiceImpl struct {
	journalRepo journal.Repository
	accountRepo account.Repository
	fiscalRepo  fiscal.Repository
	sequence    shared.SequenceGenerator
	txManager   TxManager
	authorizer  shared.Authorizer
	currentUser shared.CurrentUser
	clock       shared.Clock
	audit       shared.AuditLogger
	logger      *slog.Logger
}

// NewJournalService creates a new journal service
func NewJournalService(
	logger *slog.Logger,
	journalRepo journal.Repository,
	accountRepo account.Repository,
	fiscalRepo fiscal.Repository,
	sequence shared.SequenceGenerator,
	txManager TxManager,
	authorizer shared.Authorizer,
	currentUser shared.CurrentUser,
	clock shared.Clock,
	audit shared.AuditLogger,
) JournalService {
	return &JournalServiceImpl{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		fiscalRepo:  fiscalRepo,
		sequence:    sequence,
		txManager:   txManager,
		authorizer:  authorizer,
		currentUser: currentUser,
		clock:       clock,
		audit:       audit,
		logger:      logger,
	}
}

// CreateDraft creates a draft entry dated inside the active fiscal year. The
// entry is bound to the period containing its date; the period may already be
// locked, since drafts only become ledger facts at posting time.
func (s *JournalServiceImpl) CreateDraft(ctx context.Context, input CreateJournalEntryInput) (*journal.Entry, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionJournalCreate); err != nil {
		return nil, serviceError(err)
	}

	var created *journal.Entry
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		entry, err := s.buildDraft(ctx, tx, input, nil)
		if err != nil {
			return err
		}
		if err := s.journalRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "journal_entry", entry.ID, "create", s.currentUser.Username(),
			fmt.Sprintf("created draft %s", entry.DraftCode)); err != nil {
			return err
		}

		created = entry
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.logger.Info("draft created", "draftCode", created.DraftCode, "lines", len(created.Lines))
	return created, nil
}

// CreateAdjustment creates a draft adjustment linked to a posted entry. The
// adjustment goes through the normal draft lifecycle and posting pipeline.
func (s *JournalServiceImpl) CreateAdjustment(ctx context.Context, adjustedID uuid.UUID, input CreateJournalEntryInput) (*journal.Entry, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionJournalCreate); err != nil {
		return nil, serviceError(err)
	}

	var created *journal.Entry
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		adjusted, err := s.journalRepo.WithTx(tx).GetByID(ctx, adjustedID)
		if err != nil {
			return err
		}

		input.Source = shared.SourceTypeAdjustment
		entry, err := s.buildDraft(ctx, tx, input, adjusted)
		if err != nil {
			return err
		}
		if err := s.journalRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "journal_entry", entry.ID, "create", s.currentUser.Username(),
			fmt.Sprintf("created adjustment draft %s for %s", entry.DraftCode, adjusted.JournalNumber)); err != nil {
			return err
		}

		created = entry
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return created, nil
}

// buildDraft resolves the fiscal year and period for the entry date and
// assembles the draft with its validated lines.
func (s *JournalServiceImpl) buildDraft(ctx context.Context, tx pgx.Tx, input CreateJournalEntryInput, adjusted *journal.Entry) (*journal.Entry, error) {
	year, err := s.fiscalRepo.WithTx(tx).GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if !year.ContainsDate(input.JournalDate) {
		return nil, shared.DomainViolation(fmt.Sprintf("journal date %s falls outside the active fiscal year %d",
			input.JournalDate.Format("2006-01-02"), year.Year))
	}
	period, err := year.PeriodForDate(input.JournalDate)
	if err != nil {
		return nil, domainViolation(err)
	}

	var entry *journal.Entry
	if adjusted != nil {
		entry, err = journal.CreateAdjustment(adjusted, input.JournalDate, input.Description,
			year.ID, period.ID, s.currentUser.Username(), s.clock.Now())
	} else {
		entry, err = journal.CreateDraft(input.JournalDate, input.Description, input.ReferenceNumber,
			input.Source, input.SourceID, year.ID, period.ID, input.CostCenter,
			s.currentUser.Username(), s.clock.Now())
	}
	if err != nil {
		return nil, domainViolation(err)
	}

	if err := s.appendLines(entry, input.Lines); err != nil {
		return nil, err
	}
	return entry, nil
}

// appendLines validates and attaches caller lines, collecting every line
// failure instead of stopping at the first.
func (s *JournalServiceImpl) appendLines(entry *journal.Entry, inputs []JournalLineInput) error {
	var violations []string
	now := s.clock.Now()
	for i, in := range inputs {
		line, err := journal.NewLine(in.AccountID, in.Debit, in.Credit, in.Description, in.CostCenter, in.Location, now)
		if err != nil {
			violations = append(violations, fmt.Sprintf("line %d: %s", i+1, err.Error()))
			continue
		}
		if err := entry.AddLine(line); err != nil {
			return domainViolation(err)
		}
	}
	if len(violations) > 0 {
		return shared.ValidationFailure(violations...)
	}
	return nil
}

// UpdateDraft replaces the header and lines of a draft wholesale.
func (s *JournalServiceImpl) UpdateDraft(ctx context.Context, id uuid.UUID, input UpdateJournalEntryInput) (*journal.Entry, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionJournalCreate); err != nil {
		return nil, serviceError(err)
	}

	var updated *journal.Entry
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.journalRepo.WithTx(tx)

		entry, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		year, err := s.fiscalRepo.WithTx(tx).GetByID(ctx, entry.FiscalYearID)
		if err != nil {
			return err
		}
		if !year.ContainsDate(input.JournalDate) {
			return shared.DomainViolation(fmt.Sprintf("journal date %s falls outside fiscal year %d",
				input.JournalDate.Format("2006-01-02"), year.Year))
		}
		period, err := year.PeriodForDate(input.JournalDate)
		if err != nil {
			return domainViolation(err)
		}

		if err := entry.UpdateDraft(input.JournalDate, input.Description, input.ReferenceNumber,
			input.CostCenter, s.currentUser.Username(), s.clock.Now()); err != nil {
			return domainViolation(err)
		}
		entry.FiscalPeriodID = period.ID
		if err := entry.ReplaceLines(nil); err != nil {
			return domainViolation(err)
		}
		if err := s.appendLines(entry, input.Lines); err != nil {
			return err
		}

		if err := repo.Update(ctx, entry); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "journal_entry", entry.ID, "update", s.currentUser.Username(),
			fmt.Sprintf("updated draft %s", entry.DraftCode)); err != nil {
			return err
		}

		updated = entry
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return updated, nil
}

// DeleteDraft soft-deletes a draft entry. Posted and reversed entries are
// permanent and cannot be deleted.
func (s *JournalServiceImpl) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionJournalCreate); err != nil {
		return serviceError(err)
	}

	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.journalRepo.WithTx(tx)

		entry, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := entry.SoftDelete(s.currentUser.Username(), s.clock.Now()); err != nil {
			return domainViolation(err)
		}
		if err := repo.Update(ctx, entry); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, "journal_entry", entry.ID, "delete", s.currentUser.Username(),
			fmt.Sprintf("deleted draft %s", entry.DraftCode))
	})
	return serviceError(err)
}

// PostEntry runs the full posting pipeline in one serializable transaction:
// the entry must be a draft in an active year and open period, dated inside
// both, every line account must accept postings, and the entry must balance.
// Each check collects all of its violations before failing. On success the
// entry gets its permanent journal number and the touched accounts are marked
// as used.
func (s *JournalServiceImpl) PostEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionJournalPost); err != nil {
		return nil, serviceError(err)
	}

	var posted *journal.Entry
	err := s.txManager.ExecuteSerializableTx(ctx, func(tx pgx.Tx) error {
		repo := s.journalRepo.WithTx(tx)
		accounts := s.accountRepo.WithTx(tx)

		entry, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !entry.IsDraft() {
			return domainViolation(journal.ErrAlreadyPosted)
		}

		year, err := s.fiscalRepo.WithTx(tx).GetByID(ctx, entry.FiscalYearID)
		if err != nil {
			return err
		}
		if !year.IsOpen() {
			return shared.DomainViolation(fmt.Sprintf("fiscal year %d is not active", year.Year))
		}
		period, err := year.PeriodByID(entry.FiscalPeriodID)
		if err != nil {
			return domainViolation(err)
		}
		if !period.IsOpen() {
			return shared.DomainViolation(fmt.Sprintf("period %d is locked", period.Number))
		}

		lineAccounts, violations, err := s.checkLineAccounts(ctx, accounts, entry)
		if err != nil {
			return err
		}
		violations = append(violations, entry.ValidateWithCalendar(year, period)...)
		if len(violations) > 0 {
			return shared.DomainViolation(violations...)
		}

		number, err := s.sequence.NextNumber(ctx, tx, year.ID)
		if err != nil {
			return err
		}
		if err := entry.Post(number, s.currentUser.Username(), s.clock.Now()); err != nil {
			return domainViolation(err)
		}
		if err := repo.Update(ctx, entry); err != nil {
			return err
		}

		for _, acc := range lineAccounts {
			if acc.HasPostings {
				continue
			}
			acc.MarkAsUsed()
			acc.Lifecycle.Touch(s.currentUser.Username(), s.clock.Now())
			if err := accounts.Update(ctx, acc); err != nil {
				return err
			}
		}

		if err := s.audit.Log(ctx, tx, "journal_entry", entry.ID, "post", s.currentUser.Username(),
			fmt.Sprintf("posted entry %s", number)); err != nil {
			return err
		}

		posted = entry
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.logger.Info("entry posted", "journalNumber", posted.JournalNumber, "lines", len(posted.Lines))
	return posted, nil
}

// checkLineAccounts loads every distinct line account and collects, by code
// and name, each one that cannot receive postings.
func (s *JournalServiceImpl) checkLineAccounts(ctx context.Context, accounts account.Repository, entry *journal.Entry) ([]*account.Account, []string, error) {
	seen := make(map[uuid.UUID]*account.Account)
	var violations []string
	var distinct []*account.Account

	for _, line := range entry.Lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		acc, err := accounts.GetByID(ctx, line.AccountID)
		if err != nil {
			var notFound account.ErrAccountNotFound
			if errors.As(err, &notFound) {
				violations = append(violations, fmt.Sprintf("account %s does not exist", line.AccountID))
				seen[line.AccountID] = nil
				continue
			}
			return nil, nil, err
		}
		seen[line.AccountID] = acc
		distinct = append(distinct, acc)
		if !acc.CanReceivePostings() {
			violations = append(violations, fmt.Sprintf("account %s - %s cannot receive postings", acc.Code, acc.NameAr))
		}
	}

	return distinct, violations, nil
}

// ReverseEntry creates, posts and links the mirrored entry undoing a posted
// entry, all in one serializable transaction. The reversal must be dated in
// an open period of the active year, on or after the original entry's date.
func (s *JournalServiceImpl) ReverseEntry(ctx context.Context, id uuid.UUID, reversalDate time.Time, reason string) (*journal.Entry, error) {
	if err := s.authorizer.Allow(ctx, s.currentUser, shared.PermissionJournalReverse); err != nil {
		return nil, serviceError(err)
	}

	var reversal *journal.Entry
	err := s.txManager.ExecuteSerializableTx(ctx, func(tx pgx.Tx) error {
		repo := s.journalRepo.WithTx(tx)

		original, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if reversalDate.Before(original.JournalDate) {
			return shared.DomainViolation(fmt.Sprintf("reversal date %s cannot precede the original entry date %s",
				reversalDate.Format("2006-01-02"), original.JournalDate.Format("2006-01-02")))
		}

		year, err := s.fiscalRepo.WithTx(tx).GetActive(ctx)
		if err != nil {
			return err
		}
		if !year.ContainsDate(reversalDate) {
			return shared.DomainViolation(fmt.Sprintf("reversal date %s falls outside the active fiscal year %d",
				reversalDate.Format("2006-01-02"), year.Year))
		}
		period, err := year.PeriodForDate(reversalDate)
		if err != nil {
			return domainViolation(err)
		}
		if !period.IsOpen() {
			return shared.DomainViolation(fmt.Sprintf("period %d is locked", period.Number))
		}

		rev, err := original.CreateReversal(reversalDate, reason, year.ID, period.ID,
			s.currentUser.Username(), s.clock.Now())
		if err != nil {
			return domainViolation(err)
		}

		// The mirrored lines hit the same accounts as the original, and
		// those accounts must still accept postings at reversal time.
		_, violations, err := s.checkLineAccounts(ctx, s.accountRepo.WithTx(tx), rev)
		if err != nil {
			return err
		}
		if len(violations) > 0 {
			return shared.DomainViolation(violations...)
		}

		number, err := s.sequence.NextNumber(ctx, tx, year.ID)
		if err != nil {
			return err
		}
		if err := rev.Post(number, s.currentUser.Username(), s.clock.Now()); err != nil {
			return domainViolation(err)
		}
		if err := repo.Create(ctx, rev); err != nil {
			return err
		}

		if err := original.MarkAsReversed(rev.ID, reason, s.currentUser.Username(), s.clock.Now()); err != nil {
			return domainViolation(err)
		}
		if err := repo.Update(ctx, original); err != nil {
			return err
		}

		if err := s.audit.Log(ctx, tx, "journal_entry", rev.ID, "post", s.currentUser.Username(),
			fmt.Sprintf("posted reversal %s of %s", number, original.JournalNumber)); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, "journal_entry", original.ID, "reverse", s.currentUser.Username(),
			fmt.Sprintf("reversed entry %s: %s", original.JournalNumber, reason)); err != nil {
			return err
		}

		reversal = rev
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.logger.Info("entry reversed", "original", id.String(), "reversal", reversal.JournalNumber)
	return reversal, nil
}

// GetEntry retrieves an entry with its lines
func (s *JournalServiceImpl) GetEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	entry, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, serviceError(err)
	}
	return entry, nil
}

// ListByPeriod returns all entries dated in a fiscal period
func (s *JournalServiceImpl) ListByPeriod(ctx context.Context, fiscalPeriodID uuid.UUID) ([]*journal.Entry, error) {
	entries, err := s.journalRepo.GetByPeriod(ctx, fiscalPeriodID)
	if err != nil {
		return nil, serviceError(err)
	}
	return entries, nil
}

// ListByStatus returns a fiscal year's entries in one lifecycle state
func (s *JournalServiceImpl) ListByStatus(ctx context.Context, fiscalYearID uuid.UUID, status journal.Status) ([]*journal.Entry, error) {
	entries, err := s.journalRepo.GetByStatus(ctx, fiscalYearID, status)
	if err != nil {
		return nil, serviceError(err)
	}
	return entries, nil
}
