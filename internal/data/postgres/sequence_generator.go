package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marco-erp/ledger-core/internal/domain/fiscal"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// JournalSequenceGenerator issues journal numbers from a per-year counter row,
// formatted "<prefix>-<year>-NNNNNN". The upsert runs on the caller's
// transaction: the row lock it takes serializes concurrent posters, and a
// rolled-back posting rolls the counter back with it, so committed numbers
// stay gapless.
type JournalSequenceGenerator struct {
	prefix string
	logger *slog.Logger
}

// NewJournalSequenceGenerator creates a generator using the given journal
// number prefix.
func NewJournalSequenceGenerator(logger *slog.Logger, prefix string) shared.SequenceGenerator {
	return &JournalSequenceGenerator{
		prefix: prefix,
		logger: logger,
	}
}

// NextNumber returns the next journal number for the fiscal year.
func (g *JournalSequenceGenerator) NextNumber(ctx context.Context, tx pgx.Tx, fiscalYearID uuid.UUID) (string, error) {
	query := `
		INSERT INTO journal_sequences (fiscal_year_id, year, last_number)
		SELECT id, year, 1 FROM fiscal_years WHERE id = $1
		ON CONFLICT (fiscal_year_id)
		DO UPDATE SET last_number = journal_sequences.last_number + 1
		RETURNING year, last_number
	`

	var year, number int
	if err := tx.QueryRow(ctx, query, fiscalYearID).Scan(&year, &number); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fiscal.ErrYearNotFound{FiscalYearID: fiscalYearID}
		}
		g.logger.Error("Failed to generate journal number", "fiscalYearID", fiscalYearID.String(), "error", err)
		return "", fmt.Errorf("failed to generate journal number: %w", err)
	}

	return fmt.Sprintf("%s-%d-%06d", g.prefix, year, number), nil
}
