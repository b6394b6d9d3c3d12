// internal/workers/documents/generate-exam-card/handler_test.go
package generateexamcard

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
	"recruitment-portal/internal/synthesis"
)

const (
	approvedID = "6f1c2b8e-3d4a-4c5b-9e7f-1a2b3c4d5e6f"
	secondID   = "7a2d3c9f-4e5b-4d6c-8f80-2b3c4d5e6f70"
	pendingID  = "8b3e4d0a-5f6c-4e7d-9091-3c4d5e6f7081"
)

type fakeStore struct {
	mu     sync.Mutex
	apps   map[string]*models.Application
	docs   []*models.Document
	audits []models.AuditLog
}

func (s *fakeStore) GetApplication(_ context.Context, id string) (*models.Application, error) {
	app, ok := s.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return app, nil
}

func (s *fakeStore) GetPosition(_ context.Context, id string) (*models.Position, error) {
	return &models.Position{ID: id, Title: "พนักงานจ้างตามภารกิจ ตำแหน่งผู้ช่วยนักวิชาการ", IsActive: true}, nil
}

func (s *fakeStore) ListDocuments(context.Context, string) ([]models.Document, error) {
	return nil, nil
}

func (s *fakeStore) InsertDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

func (s *fakeStore) Audit(_ context.Context, entry models.AuditLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, entry)
}

type fakeBlobs struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objs[key] = data
	return "https://files.example.test/" + key, nil
}

func (b *fakeBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.objs[key], nil
}

func applicant(id, name string, status models.ApplicationStatus, exam string) *models.Application {
	return &models.Application{
		ID:         id,
		PositionID: "pos-1",
		CitizenID:  "1101700203409",
		FullName:   name,
		BirthDate:  "1990-01-01",
		Status:     status,
		ExamNumber: exam,
		CreatedAt:  time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newTestHandler(t *testing.T) (*Handler, *fakeStore, *fakeBlobs) {
	t.Helper()
	s := &fakeStore{apps: map[string]*models.Application{
		approvedID: applicant(approvedID, "Somchai Jaidee", models.StatusApproved, "0007"),
		secondID:   applicant(secondID, "Suda Rakdee", models.StatusApproved, "0008"),
		pendingID:  applicant(pendingID, "Anan Sukjai", models.StatusPending, ""),
	}}
	blobs := &fakeBlobs{objs: map[string][]byte{}}
	engine, err := synthesis.NewEngine(synthesis.Options{OutputDir: t.TempDir()}, logger.NewTestLogger(t))
	require.NoError(t, err)
	cfg := &Config{Timeout: time.Minute, Organisation: "Uthai Thani", VerifyURLBase: "https://jobs.example.test/verify", Concurrency: 2}
	return NewHandler(cfg, s, blobs, engine, logger.NewTestLogger(t)), s, blobs
}

// ==========================
// Single card
// ==========================

func TestHandler_Execute_SingleCard(t *testing.T) {
	handler, s, blobs := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: approvedID})

	require.NoError(t, err)
	require.Len(t, output.ExamCards, 1)
	card := output.ExamCards[0]
	assert.Equal(t, "0007_Somchai Jaidee.pdf", card.FileName)
	assert.Equal(t, 1, card.Pages)
	assert.True(t, strings.HasPrefix(card.StorageKey, approvedID+"/"))
	assert.True(t, strings.HasPrefix(string(blobs.objs[card.StorageKey]), "%PDF"))
	assert.Empty(t, output.Failed)

	require.Len(t, s.docs, 1)
	assert.Equal(t, models.DocumentKindExamCard, s.docs[0].FileType)
	assert.Equal(t, models.AuditActionGenerateExamCard, s.audits[0].Action)
}

func TestHandler_Execute_NotApproved(t *testing.T) {
	handler, _, blobs := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: pendingID})

	assert.Nil(t, output)
	stdErr, ok := commonerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeApplicationNotApproved, stdErr.Code)
	assert.Empty(t, blobs.objs)
}

// ==========================
// Batches
// ==========================

func TestHandler_Execute_BatchReportsPartialFailures(t *testing.T) {
	handler, s, _ := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationIDs: []string{approvedID, pendingID, secondID, approvedID},
	})

	require.NoError(t, err)
	require.Len(t, output.ExamCards, 2)
	assert.Equal(t, "0007_Somchai Jaidee.pdf", output.ExamCards[0].FileName)
	assert.Equal(t, "0008_Suda Rakdee.pdf", output.ExamCards[1].FileName)
	require.Len(t, output.Failed, 1)
	assert.Equal(t, pendingID, output.Failed[0].ApplicationID)
	assert.Equal(t, string(commonerrors.ErrCodeApplicationNotApproved), output.Failed[0].Code)
	assert.Len(t, s.docs, 2)
}

func TestHandler_Execute_EmptyInput(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})

	stdErr, ok := commonerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeInvalidJobInput, stdErr.Code)
}

func TestInput_IDsDeduplicates(t *testing.T) {
	in := Input{ApplicationID: approvedID, ApplicationIDs: []string{approvedID, "", secondID}}
	assert.Equal(t, []string{approvedID, secondID}, in.ids())
}
