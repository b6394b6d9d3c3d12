// Package docsource loads everything a generated document needs about one
// application and stores the emitted PDF next to the applicant's uploads.
package docsource

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/ingest"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
	"recruitment-portal/internal/synthesis"
)

// Store is the subset of the application store generators read and write.
type Store interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	GetPosition(ctx context.Context, id string) (*models.Position, error)
	ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error)
	InsertDocument(ctx context.Context, doc *models.Document) error
	Audit(ctx context.Context, entry models.AuditLog)
}

type Blobs interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Synthesizer is satisfied by *synthesis.Engine.
type Synthesizer interface {
	Synthesize(ctx context.Context, t synthesis.Template, g synthesis.Geometry, outputName string) (*synthesis.Result, error)
}

// Subject is one application with its position and decoded photo.
type Subject struct {
	Application *models.Application
	Position    *models.Position
	Photo       image.Image
}

// Stored describes a generated document after upload.
type Stored struct {
	ApplicationID string `json:"applicationId"`
	FileName      string `json:"fileName"`
	StorageKey    string `json:"storageKey"`
	FileURL       string `json:"fileUrl"`
	Pages         int    `json:"pages"`
	Bytes         int64  `json:"bytes"`
}

type Source struct {
	store Store
	blobs Blobs
	log   logger.Logger
}

func New(s Store, b Blobs, log logger.Logger) *Source {
	return &Source{store: s, blobs: b, log: log}
}

// Load reads the application and its position. A missing or undecodable
// photo leaves Subject.Photo nil; templates draw a placeholder instead.
func (s *Source) Load(ctx context.Context, applicationID string) (*Subject, error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewApplicationNotFoundError(applicationID)
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError(err)
	}

	pos, err := s.store.GetPosition(ctx, app.PositionID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewPositionNotFoundError(app.PositionID)
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError(err)
	}

	return &Subject{Application: app, Position: pos, Photo: s.photo(ctx, applicationID)}, nil
}

func (s *Source) photo(ctx context.Context, applicationID string) image.Image {
	docs, err := s.store.ListDocuments(ctx, applicationID)
	if err != nil {
		s.log.Warn("document list failed, rendering without photo", map[string]interface{}{
			"applicationId": applicationID,
			"error":         err,
		})
		return nil
	}
	for _, d := range docs {
		if d.FileType != string(ingest.SlotPhoto) {
			continue
		}
		data, err := s.blobs.Get(ctx, d.StorageKey)
		if err != nil {
			s.log.Warn("photo fetch failed", map[string]interface{}{"storageKey": d.StorageKey, "error": err})
			return nil
		}
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			s.log.Warn("photo decode failed", map[string]interface{}{"storageKey": d.StorageKey, "error": err})
			return nil
		}
		return img
	}
	return nil
}

// Store uploads res under a fresh key scoped to the application, records the
// documents row and writes an audit entry.
func (s *Source) Store(ctx context.Context, applicationID, kind, action string, res *synthesis.Result) (*Stored, error) {
	key, err := ingest.StorageKey(applicationID, ingest.MimePDF)
	if err != nil {
		return nil, errors.NewInvalidJobInputError(err.Error())
	}
	url, err := s.blobs.Put(ctx, key, res.PDF(), ingest.MimePDF)
	if err != nil {
		return nil, errors.NewStorageWriteFailedError(key, err)
	}
	if err := s.store.InsertDocument(ctx, &models.Document{
		ApplicationID: applicationID,
		FileType:      kind,
		StorageKey:    key,
		FileURL:       url,
		MimeType:      ingest.MimePDF,
		ByteSize:      res.Bytes,
		OriginalName:  res.FileName,
	}); err != nil {
		return nil, errors.NewAttachmentWriteFailedError(kind, err)
	}

	s.store.Audit(ctx, models.AuditLog{
		Actor:      "workflow",
		Action:     action,
		TargetID:   applicationID,
		TargetType: "application",
		Metadata:   map[string]interface{}{"fileName": res.FileName, "pages": res.Pages, "storageKey": key},
	})
	return &Stored{
		ApplicationID: applicationID,
		FileName:      res.FileName,
		StorageKey:    key,
		FileURL:       url,
		Pages:         res.Pages,
		Bytes:         res.Bytes,
	}, nil
}

// SynthesisError maps engine failures onto job errors.
func SynthesisError(err error) error {
	if stderrors.Is(err, synthesis.ErrBusy) {
		return errors.NewSynthesisBusyError()
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewSynthesisFailedError(fmt.Errorf("synthesize: %w", err))
}
