package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// AuditLogRepository writes audit events to the audit_log table. Writes ride
// the caller's transaction so an aborted workflow leaves no trace of effects
// that never happened.
type AuditLogRepository struct {
	clock  shared.Clock
	logger *slog.Logger
}

// NewAuditLogRepository creates an audit logger using the given clock for
// event timestamps.
func NewAuditLogRepository(logger *slog.Logger, clock shared.Clock) shared.AuditLogger {
	return &AuditLogRepository{
		clock:  clock,
		logger: logger,
	}
}

// Log records one audit event on the caller's transaction.
func (r *AuditLogRepository) Log(ctx context.Context, tx pgx.Tx, entity string, entityID uuid.UUID, action, username, details string) error {
	query := `
		INSERT INTO audit_log (id, entity, entity_id, action, username, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query,
		uuid.New(),
		entity,
		entityID,
		action,
		username,
		details,
		r.clock.Now().Truncate(time.Microsecond),
	)
	if err != nil {
		r.logger.Error("Failed to write audit event", "entity", entity, "action", action, "error", err)
		return fmt.Errorf("failed to write audit event: %w", err)
	}

	return nil
}
