package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/ingest"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
	"recruitment-portal/internal/wizard"
)

const testCitizenID = "1101700203409"

var testPositions = []models.Position{
	{ID: "pos-1", Title: "นักวิชาการคอมพิวเตอร์", IsActive: true},
}

type fakePositions struct{ err error }

func (f fakePositions) ActivePositions(context.Context) ([]models.Position, error) {
	if f.err != nil {
		return nil, f.err
	}
	return testPositions, nil
}

type fakeRepo struct {
	mu   sync.Mutex
	apps []*models.Application
	docs []*models.Document
}

func (r *fakeRepo) InsertApplication(_ context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps = append(r.apps, app)
	return nil
}

func (r *fakeRepo) InsertDocument(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	return nil
}

func (r *fakeRepo) Audit(context.Context, models.AuditLog) {}

type fakeBlobs struct{}

func (fakeBlobs) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://files.example.test/" + key, nil
}

type fakeStatus struct {
	apps map[string]*models.Application
	err  error
}

func (f fakeStatus) LatestByCitizenID(_ context.Context, citizenID string) (*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	app, ok := f.apps[citizenID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return app, nil
}

type testServer struct {
	srv  *httptest.Server
	repo *fakeRepo
}

func newTestServer(t *testing.T, status StatusLookup, checks ...Check) *testServer {
	repo := &fakeRepo{}
	log := logger.NewTestLogger(t)
	h := New(Options{
		Consents: wizard.NewMemoryConsentStore(time.Hour),
		Sessions: wizard.NewSessions(time.Hour),
		Wizard: wizard.Deps{
			Positions:      fakePositions{},
			Repository:     repo,
			Blobs:          fakeBlobs{},
			Ingester:       ingest.NewPipeline(ingest.Options{}, ingest.NoopCompressor{}, log),
			Cooldown:       wizard.NewMemoryCooldown(),
			CooldownWindow: 10 * time.Second,
			Logger:         log,
		},
		Status:    status,
		Positions: fakePositions{},
		Checks:    checks,
		Logger:    log,
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (s *testServer) attach(t *testing.T, sessionID string, slot ingest.SlotKey, name, mimeType string, data []byte) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/wizard/%s/attachments/%s", s.srv.URL, sessionID, slot), &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.send(t, req)
}

// openWizard records consent and opens a wizard against it.
func (s *testServer) openWizard(t *testing.T) string {
	t.Helper()
	resp, consent := s.do(t, http.MethodPost, "/consent", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/wizard", map[string]string{"consentId": consent["consentId"].(string)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "position", body["step"])
	return body["sessionId"].(string)
}

func (s *testServer) toDocuments(t *testing.T, id string) {
	t.Helper()
	resp, _ := s.do(t, http.MethodPatch, "/wizard/"+id+"/fields", map[string]string{
		wizard.FieldPositionID:     "pos-1",
		wizard.FieldCitizenID:      testCitizenID,
		wizard.FieldFullName:       "สมหญิง รักเรียน",
		wizard.FieldBirthDate:      "1998-07-21",
		wizard.FieldPhone:          "0891234567",
		wizard.FieldAddress:        "12 หมู่ 3 ตำบลในเมือง",
		wizard.FieldEducationLevel: "ปริญญาตรี",
		wizard.FieldInstitution:    "มหาวิทยาลัยเชียงใหม่",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for i := 0; i < 3; i++ {
		resp, _ := s.do(t, http.MethodPost, "/wizard/"+id+"/next", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func (s *testServer) attachRequired(t *testing.T, id string) {
	t.Helper()
	for slot, mimeType := range map[ingest.SlotKey]string{
		ingest.SlotPhoto:      ingest.MimePNG,
		ingest.SlotIDCard:     ingest.MimePDF,
		ingest.SlotTranscript: ingest.MimePDF,
	} {
		data := []byte("%PDF-1.4")
		if mimeType == ingest.MimePNG {
			data = tinyPNG(t)
		}
		resp, _ := s.attach(t, id, slot, "file", mimeType, data)
		require.Equal(t, http.StatusOK, resp.StatusCode, slot)
	}
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 16))
	for x := 0; x < 12; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y * 10), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ==========================================
// Health and readiness
// ==========================================

func TestHealth(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	resp, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestReady_FailingProbe(t *testing.T) {
	s := newTestServer(t, fakeStatus{},
		Check{Name: "postgres", Probe: func(context.Context) error { return nil }},
		Check{Name: "redis", Probe: func(context.Context) error { return errors.New("connection refused") }},
	)
	resp, body := s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "not_ready", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["postgres"])
	assert.Equal(t, "connection refused", checks["redis"])
}

func TestListPositions(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	resp, body := s.do(t, http.MethodGet, "/positions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["positions"], 1)
}

// ==========================================
// Consent and wizard lifecycle
// ==========================================

func TestOpenWizard_RequiresConsent(t *testing.T) {
	s := newTestServer(t, fakeStatus{})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing consent id", map[string]string{}, http.StatusPreconditionRequired},
		{"unknown consent id", map[string]string{"consentId": "nope"}, http.StatusPreconditionRequired},
		{"unknown field", map[string]string{"consent": "x"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, http.MethodPost, "/wizard", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, body["code"])
		})
	}
}

func TestWizard_UnknownSession(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	resp, body := s.do(t, http.MethodGet, "/wizard/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SESSION_NOT_FOUND", body["code"])
}

func TestWizard_AbandonDropsSession(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	id := s.openWizard(t)

	resp, _ := s.do(t, http.MethodDelete, "/wizard/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/wizard/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWizard_NextWithoutPositionReturnsFieldErrors(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	id := s.openWizard(t)

	resp, body := s.do(t, http.MethodPost, "/wizard/"+id+"/next", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	assert.Contains(t, body["fields"], wizard.FieldPositionID)
}

func TestWizard_SetFieldsRejectsUnknownField(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	id := s.openWizard(t)

	resp, body := s.do(t, http.MethodPatch, "/wizard/"+id+"/fields", map[string]string{"salary": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestWizard_BackFromFirstStepStays(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	id := s.openWizard(t)

	resp, body := s.do(t, http.MethodPost, "/wizard/"+id+"/back", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "position", body["step"])
}

// ==========================================
// Attachments
// ==========================================

func TestAttach_TypeRejectedIsFieldAddressed(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	id := s.openWizard(t)

	resp, body := s.attach(t, id, ingest.SlotPhoto, "cv.pdf", ingest.MimePDF, []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INGEST_TYPE_REJECTED", body["code"])
	assert.Contains(t, body["fields"], string(ingest.SlotPhoto))
}

func TestAttach_PreviewAndDetach(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	id := s.openWizard(t)

	resp, body := s.attach(t, id, ingest.SlotPhoto, "me.png", ingest.MimePNG, tinyPNG(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["attachments"], string(ingest.SlotPhoto))

	preview, err := s.srv.Client().Get(s.srv.URL + "/wizard/" + id + "/attachments/photo/preview")
	require.NoError(t, err)
	preview.Body.Close()
	assert.Equal(t, http.StatusOK, preview.StatusCode)
	assert.Equal(t, "image/png", preview.Header.Get("Content-Type"))

	resp, body = s.do(t, http.MethodDelete, "/wizard/"+id+"/attachments/photo", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body["attachments"], string(ingest.SlotPhoto))

	preview, err = s.srv.Client().Get(s.srv.URL + "/wizard/" + id + "/attachments/photo/preview")
	require.NoError(t, err)
	preview.Body.Close()
	assert.Equal(t, http.StatusNoContent, preview.StatusCode)
}

// ==========================================
// Submission
// ==========================================

func TestSubmit_FullFlow(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	id := s.openWizard(t)
	s.toDocuments(t, id)
	s.attachRequired(t, id)

	resp, body := s.do(t, http.MethodPost, "/wizard/"+id+"/submit", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, s.repo.apps, 1)
	assert.Equal(t, s.repo.apps[0].ID, body["applicationId"])
	assert.Len(t, body["stored"], 3)
	assert.Len(t, s.repo.docs, 3)

	resp, body = s.do(t, http.MethodPost, "/wizard/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATUS_CHANGE", body["code"])
}

func TestSubmit_BeforeDocumentsStep(t *testing.T) {
	s := newTestServer(t, fakeStatus{})
	id := s.openWizard(t)

	resp, _ := s.do(t, http.MethodPost, "/wizard/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, s.repo.apps)
}

func TestSubmit_CooldownSetsRetryAfter(t *testing.T) {
	s := newTestServer(t, fakeStatus{})

	first := s.openWizard(t)
	s.toDocuments(t, first)
	s.attachRequired(t, first)
	resp, _ := s.do(t, http.MethodPost, "/wizard/"+first+"/submit", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	second := s.openWizard(t)
	s.toDocuments(t, second)
	s.attachRequired(t, second)
	resp, body := s.do(t, http.MethodPost, "/wizard/"+second+"/submit", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "COOLDOWN_ACTIVE", body["code"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Len(t, s.repo.apps, 1)
}

// ==========================================
// Status lookup
// ==========================================

func TestStatus(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lookup := fakeStatus{apps: map[string]*models.Application{
		testCitizenID: {
			ID:         "app-1",
			CitizenID:  testCitizenID,
			PositionID: "pos-1",
			Status:     models.StatusApproved,
			ExamNumber: "0007",
			CreatedAt:  submitted,
		},
	}}
	s := newTestServer(t, lookup)

	resp, body := s.do(t, http.MethodGet, "/status/"+testCitizenID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "app-1", body["applicationId"])
	assert.Equal(t, "1-1017**-*****-**-9", body["citizenId"])
	assert.Equal(t, "0007", body["examNumber"])
	assert.Equal(t, string(models.StatusApproved), body["status"])
}

func TestStatus_Errors(t *testing.T) {
	tests := []struct {
		name     string
		lookup   fakeStatus
		id       string
		want     int
		wantCode string
	}{
		{"bad checksum", fakeStatus{}, "1101700203400", http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"not found", fakeStatus{}, testCitizenID, http.StatusNotFound, "APPLICATION_NOT_FOUND"},
		{"database down", fakeStatus{err: errors.New("dial tcp: refused")}, testCitizenID, http.StatusServiceUnavailable, "DATABASE_CONNECTION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.lookup)
			resp, body := s.do(t, http.MethodGet, "/status/"+tt.id, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}
