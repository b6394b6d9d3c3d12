// internal/workers/data-access/index-application/handler_test.go
package indexapplication

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
)

const testAppID = "6f1c2b8e-3d4a-4c5b-9e7f-1a2b3c4d5e6f"

type fakeStore struct {
	app    *models.Application
	audits []models.AuditLog
}

func (s *fakeStore) GetApplication(_ context.Context, id string) (*models.Application, error) {
	if s.app == nil || s.app.ID != id {
		return nil, store.ErrNotFound
	}
	return s.app, nil
}

func (s *fakeStore) GetPosition(_ context.Context, id string) (*models.Position, error) {
	return &models.Position{ID: id, Title: "นักวิชาการคอมพิวเตอร์"}, nil
}

func (s *fakeStore) Audit(_ context.Context, entry models.AuditLog) {
	s.audits = append(s.audits, entry)
}

type capture struct {
	mu     sync.Mutex
	method string
	path   string
	body   []byte
}

func newESServer(t *testing.T, status int) (*elasticsearch.Client, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.method, c.path, c.body = r.Method, r.URL.Path, body
		c.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status < 300 {
			_, _ = w.Write([]byte(`{"_index":"applications","_id":"` + testAppID + `","_version":3,"result":"updated"}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"type":"cluster_block_exception"},"status":500}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, c
}

func testApplication() *models.Application {
	gpa := 3.41
	return &models.Application{
		ID:             testAppID,
		PositionID:     "pos-1",
		CitizenID:      "1101700203409",
		FullName:       "สมชาย ใจดี",
		Phone:          "0812345678",
		EducationLevel: "ปริญญาตรี",
		Institution:    "มหาวิทยาลัยขอนแก่น",
		GPA:            &gpa,
		Status:         models.StatusApproved,
		ExamNumber:     "0007",
		CreatedAt:      time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_IndexesMaskedProjection(t *testing.T) {
	client, captured := newESServer(t, http.StatusOK)
	s := &fakeStore{app: testApplication()}
	handler := NewHandler(&Config{Timeout: time.Second, Index: "applications"}, s, client, logger.NewTestLogger(t))
	handler.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: testAppID})

	require.NoError(t, err)
	assert.Equal(t, "updated", output.Result)
	assert.Equal(t, int64(3), output.Version)
	assert.Equal(t, http.MethodPut, captured.method)
	assert.Equal(t, "/applications/_doc/"+testAppID, captured.path)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(captured.body, &doc))
	assert.Equal(t, "1-1017**-*****-**-9", doc["citizenIdMasked"])
	assert.Equal(t, "081-***-5678", doc["phoneMasked"])
	assert.Equal(t, "นักวิชาการคอมพิวเตอร์", doc["positionTitle"])
	assert.Equal(t, "0007", doc["examNumber"])
	assert.NotContains(t, string(captured.body), "1101700203409")
	assert.NotContains(t, string(captured.body), "0812345678")

	require.Len(t, s.audits, 1)
	assert.Equal(t, models.AuditActionIndex, s.audits[0].Action)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_ClusterError(t *testing.T) {
	client, _ := newESServer(t, http.StatusInternalServerError)
	s := &fakeStore{app: testApplication()}
	handler := NewHandler(&Config{Timeout: time.Second, Index: "applications"}, s, client, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: testAppID})

	assert.Nil(t, output)
	stdErr, ok := commonerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeIndexingFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Empty(t, s.audits)
}

func TestHandler_Execute_UnknownApplication(t *testing.T) {
	client, captured := newESServer(t, http.StatusOK)
	handler := NewHandler(nil, &fakeStore{}, client, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{ApplicationID: testAppID})

	stdErr, ok := commonerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeApplicationNotFound, stdErr.Code)
	assert.Empty(t, captured.path)
}
