// internal/store/audit.go
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"recruitment-portal/internal/models"
)

// InsertAudit writes an audit row. Callers treat failures as non-fatal.
func (s *Store) InsertAudit(ctx context.Context, entry models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	meta := []byte("{}")
	if len(entry.Metadata) > 0 {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		meta = b
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor, action, target_id, target_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Actor, entry.Action, entry.TargetID, entry.TargetType, meta,
	)
	if err != nil {
		return fmt.Errorf("insert audit %s: %w", entry.Action, err)
	}
	return nil
}

// Audit writes entry and only logs a failure.
func (s *Store) Audit(ctx context.Context, entry models.AuditLog) {
	if err := s.InsertAudit(ctx, entry); err != nil {
		s.log.Warn("audit write failed", map[string]interface{}{
			"action":   entry.Action,
			"targetId": entry.TargetID,
			"error":    err,
		})
	}
}
