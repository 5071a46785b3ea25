package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditTrail records every ledger mutation, stage transition and
// reorder/ranking/orchestration decision as an append-only audit_events row
// with a unique id and timestamp, so the cascade is independently observable
// and replayable. Recording is best-effort: an audit write failure is logged
// and never fails the operation being audited.
type AuditTrail struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditTrail constructs an AuditTrail. A nil pool disables persistence
// and keeps only the structured log record (used by pure unit tests).
func NewAuditTrail(pool *pgxpool.Pool, logger *slog.Logger) *AuditTrail {
	return &AuditTrail{pool: pool, logger: logger}
}

// Record appends one audit event and returns its id. Detail is serialized
// as JSON; a value that cannot be marshalled is recorded as null.
func (a *AuditTrail) Record(ctx context.Context, category, entityID string, detail any) string {
	eventID := uuid.NewString()
	now := time.Now().UTC()

	payload, err := json.Marshal(detail)
	if err != nil {
		a.logger.Warn("audit detail not serializable", "category", category, "error", err)
		payload = []byte("null")
	}

	a.logger.Info("audit event",
		"audit_id", eventID,
		"category", category,
		"entity_id", entityID,
		"recorded_at", now.Format(time.RFC3339Nano))

	if a.pool == nil {
		return eventID
	}

	if _, err := a.pool.Exec(ctx, `
		INSERT INTO audit_events (event_id, category, entity_id, detail, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		eventID, category, entityID, payload, now,
	); err != nil {
		a.logger.Error("failed to persist audit event",
			"audit_id", eventID, "category", category, "error", err)
	}
	return eventID
}
