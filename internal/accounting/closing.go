package accounting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/marco-erp/ledger-core/internal/domain/account"
	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// ClosingEngine builds and posts the year-end closing entry: every income
// statement account is zeroed by a line on the opposite side of its net
// activity, and the resulting net income or loss lands on the retained
// earnings account. Balance sheet accounts are untouched; their balances
// carry forward.
type ClosingEngine struct {
	accountRepo          account.Repository
	journalRepo          journal.Repository
	sequence             shared.SequenceGenerator
	currentUser          shared.CurrentUser
	clock                shared.Clock
	audit                shared.AuditLogger
	retainedEarningsCode string
	logger               *slog.Logger
}

// NewClosingEngine creates a closing engine targeting the configured retained
// earnings account code.
func NewClosingEngine(
	logger *slog.Logger,
	accountRepo account.Repository,
	journalRepo journal.Repository,
	sequence shared.SequenceGenerator,
	currentUser shared.CurrentUser,
	clock shared.Clock,
	audit shared.AuditLogger,
	retainedEarningsCode string,
) *ClosingEngine {
	return &ClosingEngine{
		accountRepo:          accountRepo,
		journalRepo:          journalRepo,
		sequence:             sequence,
		currentUser:          currentUser,
		clock:                clock,
		audit:                audit,
		retainedEarningsCode: retainedEarningsCode,
		logger:               logger,
	}
}

// Run executes the closing on the caller's transaction. Running twice is
// safe: a posted closing entry for the year makes the second run a no-op, as
// does a year with no income statement activity.
func (e *ClosingEngine) Run(ctx context.Context, tx pgx.Tx, year *fiscal.Year, activity []journal.AccountActivity) error {
	journals := e.journalRepo.WithTx(tx)
	accounts := e.accountRepo.WithTx(tx)

	alreadyClosed, err := journals.HasPostedEntryBySource(ctx, year.ID, string(shared.SourceTypeClosing))
	if err != nil {
		return err
	}
	if alreadyClosed {
		e.logger.Info("closing entry already posted, skipping", "year", year.Year)
		return nil
	}

	entry, touched, err := e.buildClosingEntry(ctx, accounts, year, activity)
	if err != nil {
		return err
	}
	if entry == nil {
		e.logger.Info("no income statement activity to close", "year", year.Year)
		return nil
	}

	if violations := entry.Validate(); len(violations) > 0 {
		return shared.DomainViolation(violations...)
	}

	number, err := e.sequence.NextNumber(ctx, tx, year.ID)
	if err != nil {
		return err
	}
	if err := entry.Post(number, e.currentUser.Username(), e.clock.Now()); err != nil {
		return domainViolation(err)
	}
	if err := journals.Create(ctx, entry); err != nil {
		return err
	}

	for _, acc := range touched {
		if acc.HasPostings {
			continue
		}
		acc.MarkAsUsed()
		acc.Lifecycle.Touch(e.currentUser.Username(), e.clock.Now())
		if err := accounts.Update(ctx, acc); err != nil {
			return err
		}
	}

	if err := e.audit.Log(ctx, tx, "journal_entry", entry.ID, "post", e.currentUser.Username(),
		fmt.Sprintf("posted closing entry %s for fiscal year %d", number, year.Year)); err != nil {
		return err
	}

	e.logger.Info("closing entry posted", "year", year.Year, "journalNumber", number, "lines", len(entry.Lines))
	return nil
}

// buildClosingEntry assembles the draft closing entry. Returns nil when no
// income statement account has a non-zero net. The returned accounts are the
// ones receiving closing lines, so the caller can mark them as used.
func (e *ClosingEngine) buildClosingEntry(ctx context.Context, accounts account.Repository, year *fiscal.Year, activity []journal.AccountActivity) (*journal.Entry, []*account.Account, error) {
	now := e.clock.Now()
	lastPeriod := year.LastPeriod()
	closingDate := year.EndDate

	entry, err := journal.CreateDraft(
		closingDate,
		fmt.Sprintf("Closing entry for fiscal year %d", year.Year),
		"",
		shared.SourceTypeClosing,
		nil,
		year.ID,
		lastPeriod.ID,
		"",
		e.currentUser.Username(),
		now,
	)
	if err != nil {
		return nil, nil, domainViolation(err)
	}

	var touched []*account.Account
	var violations []string
	netResult := decimal.Zero // credit-positive: income minus expense
	for _, a := range activity {
		acc, err := accounts.GetByID(ctx, a.AccountID)
		if err != nil {
			return nil, nil, err
		}
		if !account.IsIncomeStatementType(acc.Type) {
			continue
		}

		net := a.Net()
		if net.IsZero() {
			continue
		}

		if !acc.CanReceivePostings() {
			violations = append(violations, fmt.Sprintf("account %s - %s cannot receive postings", acc.Code, acc.NameAr))
			continue
		}

		// A debit net closes with a credit line and vice versa.
		debit, credit := decimal.Zero, decimal.Zero
		if net.IsPositive() {
			credit = net
		} else {
			debit = net.Neg()
		}
		line, err := journal.NewLine(acc.ID, debit, credit,
			fmt.Sprintf("Close %s - %s", acc.Code, acc.NameAr), "", "", now)
		if err != nil {
			return nil, nil, domainViolation(err)
		}
		if err := entry.AddLine(line); err != nil {
			return nil, nil, domainViolation(err)
		}

		netResult = netResult.Add(net.Neg())
		touched = append(touched, acc)
	}

	if len(violations) > 0 {
		return nil, nil, shared.DomainViolation(violations...)
	}

	if len(entry.Lines) == 0 {
		return nil, nil, nil
	}

	retained, err := accounts.GetByCode(ctx, e.retainedEarningsCode)
	if err != nil {
		return nil, nil, err
	}
	if retained == nil {
		return nil, nil, shared.DomainViolation(fmt.Sprintf("retained earnings account %s does not exist", e.retainedEarningsCode))
	}
	if !retained.CanReceivePostings() {
		return nil, nil, shared.DomainViolation(fmt.Sprintf("retained earnings account %s cannot receive postings", e.retainedEarningsCode))
	}

	if !netResult.IsZero() {
		// Profit credits retained earnings, loss debits it.
		debit, credit := decimal.Zero, decimal.Zero
		if netResult.IsPositive() {
			credit = netResult
		} else {
			debit = netResult.Neg()
		}
		result := "net income"
		if netResult.IsNegative() {
			result = "net loss"
		}
		line, err := journal.NewLine(retained.ID, debit, credit,
			fmt.Sprintf("%s for fiscal year %d", result, year.Year), "", "", now)
		if err != nil {
			return nil, nil, domainViolation(err)
		}
		if err := entry.AddLine(line); err != nil {
			return nil, nil, domainViolation(err)
		}
		touched = append(touched, retained)
	} else if len(entry.Lines) == 1 {
		// A single line with a zero counterweight cannot balance; this only
		// happens when income statement nets cancel exactly across two or
		// more accounts, so one line means inconsistent aggregation upstream.
		return nil, nil, shared.DomainViolation("closing entry cannot balance: single non-zero income statement line with zero net result")
	}

	return entry, touched, nil
}
