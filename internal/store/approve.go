// internal/store/approve.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recruitment-portal/internal/models"
)

// examNumberLock serialises exam number allocation across approvers.
const examNumberLock int64 = 7_310_001

// Approve marks an application approved and allocates the next exam number
// (approved count + 1, zero-padded to four digits). Approving an already
// approved application returns its existing number.
func (s *Store) Approve(ctx context.Context, applicationID string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin approve: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, examNumberLock); err != nil {
		return "", fmt.Errorf("lock exam numbers: %w", err)
	}

	var status string
	var existing sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT status, exam_number FROM applications WHERE id = $1 FOR UPDATE`, applicationID,
	).Scan(&status, &existing)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load application: %w", err)
	}

	switch models.ApplicationStatus(status) {
	case models.StatusApproved:
		return existing.String, nil
	case models.StatusPending, models.StatusEditRequested:
	default:
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, status, models.StatusApproved)
	}

	var approved int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE status = $1`, string(models.StatusApproved),
	).Scan(&approved); err != nil {
		return "", fmt.Errorf("count approved: %w", err)
	}
	examNumber := FormatExamNumber(approved + 1)

	if _, err := tx.ExecContext(ctx,
		`UPDATE applications SET status = $2, exam_number = $3, reject_reason = NULL WHERE id = $1`,
		applicationID, string(models.StatusApproved), examNumber,
	); err != nil {
		return "", fmt.Errorf("update application: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit approve: %w", err)
	}
	return examNumber, nil
}

func FormatExamNumber(n int) string {
	return fmt.Sprintf("%04d", n)
}
