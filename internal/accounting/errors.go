package accounting

import (
	"errors"

	"github.com/marco-erp/ledger-core/internal/domain/account"
	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/journal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// serviceError classifies an error crossing the service boundary into a
// shared.Error. Already-classified errors pass through; repository error
// types map to their kinds; anything unrecognized is a persistence fault.
func serviceError(err error) error {
	if err == nil {
		return nil
	}

	var classified *shared.Error
	if errors.As(err, &classified) {
		return err
	}

	var (
		accNotFound   account.ErrAccountNotFound
		yearNotFound  fiscal.ErrYearNotFound
		noActiveYear  fiscal.ErrNoActiveYear
		entryNotFound journal.ErrEntryNotFound

		accConflict   account.ErrConcurrentModification
		yearConflict  fiscal.ErrYearConcurrentModification
		entryConflict journal.ErrEntryConcurrentModification

		dupCode   account.ErrDuplicateCode
		dupYear   fiscal.ErrDuplicateYear
		dupNumber journal.ErrDuplicateJournalNumber
	)

	switch {
	case errors.As(err, &accNotFound), errors.As(err, &yearNotFound),
		errors.As(err, &noActiveYear), errors.As(err, &entryNotFound):
		return shared.WrapError(shared.KindNotFound, err)
	case errors.As(err, &accConflict), errors.As(err, &yearConflict), errors.As(err, &entryConflict):
		return shared.WrapError(shared.KindConcurrencyConflict, err)
	case errors.As(err, &dupCode), errors.As(err, &dupYear), errors.As(err, &dupNumber):
		return shared.WrapError(shared.KindDomainViolation, err)
	default:
		return shared.WrapError(shared.KindPersistence, err)
	}
}

// domainViolation wraps a domain rule failure for the service boundary.
func domainViolation(err error) error {
	return shared.WrapError(shared.KindDomainViolation, err)
}
