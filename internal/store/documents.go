// internal/store/documents.go
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"recruitment-portal/internal/models"
)

// InsertDocument writes one attachment metadata row.
func (s *Store) InsertDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, application_id, file_type, storage_key, file_url, mime_type, byte_size, original_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		doc.ID, doc.ApplicationID, doc.FileType, doc.StorageKey, nullString(doc.FileURL),
		doc.MimeType, doc.ByteSize, doc.OriginalName,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.FileType, err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, file_type, storage_key, COALESCE(file_url, ''), mime_type, byte_size, original_name, created_at
		FROM documents WHERE application_id = $1 ORDER BY created_at`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ApplicationID, &d.FileType, &d.StorageKey, &d.FileURL,
			&d.MimeType, &d.ByteSize, &d.OriginalName, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// MissingDocuments returns the entries of required that have no documents row
// for the application, preserving the order of required.
func (s *Store) MissingDocuments(ctx context.Context, applicationID string, required []string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT file_type FROM documents WHERE application_id = $1`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list document kinds: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("scan document kind: %w", err)
		}
		present[kind] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	missing := []string{}
	for _, kind := range required {
		if !present[kind] {
			missing = append(missing, kind)
		}
	}
	return missing, nil
}
