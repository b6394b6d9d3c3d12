package synthesis

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/opentype"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"
)

func newTestEngine(t *testing.T, settle time.Duration) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	e, err := NewEngine(Options{OutputDir: dir, SettleDelay: settle}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return e, dir
}

func sampleApplication() *models.Application {
	gpa := 3.25
	return &models.Application{
		ID:             "6f1c2b8e-3d4a-4c5b-9e7f-1a2b3c4d5e6f",
		PositionID:     "pos-1",
		CitizenID:      "1101700203409",
		FullName:       "Somchai Jaidee",
		BirthDate:      "1990-01-01",
		Address:        "99 Moo 1, Mueang, Uthai Thani 61000",
		Phone:          "0812345678",
		Email:          "somchai@example.com",
		EducationLevel: "ปริญญาตรี",
		Institution:    "Kasetsart University",
		Major:          "Computer Science",
		GPA:            &gpa,
		Skills:         strings.Repeat("Go, SQL, networking. ", 30),
		Status:         models.StatusApproved,
		ExamNumber:     "0007",
	}
}

func pdfPages(t *testing.T, data []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	require.NoError(t, err)
	return n
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// blockingTemplate renders a fixed raster once released.
type blockingTemplate struct {
	key     string
	height  int
	started chan struct{}
	release chan struct{}
}

func (b *blockingTemplate) Key() string { return b.key }

func (b *blockingTemplate) Render(ctx context.Context, g Geometry, _ *opentype.Font) (*image.RGBA, error) {
	if b.started != nil {
		close(b.started)
	}
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return image.NewRGBA(image.Rect(0, 0, 400, b.height)), nil
}

// ==========================================
// Concurrency guard
// ==========================================

func TestSynthesize_SecondCallWhileInFlightIsBusy(t *testing.T) {
	e, dir := newTestEngine(t, 50*time.Millisecond)
	tmpl := &blockingTemplate{
		key:     "application-form:x",
		height:  300,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	type outcome struct {
		res *Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := e.Synthesize(context.Background(), tmpl, A4Portrait, "first.pdf")
		first <- outcome{res, err}
	}()
	<-tmpl.started

	res, err := e.Synthesize(context.Background(), tmpl, A4Portrait, "second.pdf")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrBusy)

	close(tmpl.release)
	out := <-first
	require.NoError(t, out.err)
	assert.Equal(t, "first.pdf", out.res.FileName)
	assert.Equal(t, []string{"first.pdf"}, outputFiles(t, dir))
}

func TestSynthesize_BusyDuringSettleDelay(t *testing.T) {
	e, dir := newTestEngine(t, 300*time.Millisecond)
	tmpl := &blockingTemplate{key: "exam-card:x", height: 200}

	done := make(chan error, 1)
	go func() {
		_, err := e.Synthesize(context.Background(), tmpl, CardLandscape, "card.pdf")
		done <- err
	}()

	require.Eventually(t, func() bool {
		_, busy := e.inFlight.Load(tmpl.Key())
		return busy
	}, time.Second, 5*time.Millisecond)

	_, err := e.Synthesize(context.Background(), tmpl, CardLandscape, "card-again.pdf")
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, <-done)
	assert.Equal(t, []string{"card.pdf"}, outputFiles(t, dir))
}

func TestSynthesize_DifferentInstancesRunIndependently(t *testing.T) {
	e, dir := newTestEngine(t, 0)
	a := &blockingTemplate{key: "a", height: 100, started: make(chan struct{}), release: make(chan struct{})}
	b := &blockingTemplate{key: "b", height: 100}

	done := make(chan error, 1)
	go func() {
		_, err := e.Synthesize(context.Background(), a, A4Portrait, "a.pdf")
		done <- err
	}()
	<-a.started

	_, err := e.Synthesize(context.Background(), b, A4Portrait, "b.pdf")
	require.NoError(t, err)

	close(a.release)
	require.NoError(t, <-done)
	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf"}, outputFiles(t, dir))
}

func TestSynthesize_FlagReleasedAfterFailure(t *testing.T) {
	e, dir := newTestEngine(t, 0)
	tmpl := &blockingTemplate{key: "k", height: 0}

	_, err := e.Synthesize(context.Background(), tmpl, A4Portrait, "empty.pdf")
	var synthErr *Error
	require.True(t, errors.As(err, &synthErr))
	assert.Equal(t, StagePaginate, synthErr.Stage)
	assert.Empty(t, outputFiles(t, dir))

	tmpl.height = 100
	_, err = e.Synthesize(context.Background(), tmpl, A4Portrait, "ok.pdf")
	assert.NoError(t, err)
}

func TestSynthesize_SettleHonoursContext(t *testing.T) {
	e, dir := newTestEngine(t, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Synthesize(ctx, &blockingTemplate{key: "slow", height: 10}, A4Portrait, "slow.pdf")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, outputFiles(t, dir))
}

// ==========================================
// Pagination and emit
// ==========================================

func TestSynthesize_TallRasterSpansPages(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	// 400px wide A4 content holds 566 rows per page
	tmpl := &blockingTemplate{key: "tall", height: 1500}

	res, err := e.Synthesize(context.Background(), tmpl, A4Portrait, "tall.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 3, pdfPages(t, res.PDF()))

	onDisk, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, res.PDF(), onDisk)
	assert.Equal(t, int64(len(onDisk)), res.Bytes)
}

func TestSynthesize_ApplicationForm(t *testing.T) {
	e, dir := newTestEngine(t, 0)
	app := sampleApplication()
	form := &ApplicationForm{
		Application:  app,
		Position:     &models.Position{ID: "pos-1", Title: "Computer Technical Officer", Department: "Office of the Clerk"},
		Organisation: "Uthai Thani Town Municipality",
		Now:          func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) },
	}

	res, err := e.Synthesize(context.Background(), form, A4Portrait, FormFileName(app.FullName))
	require.NoError(t, err)
	assert.Equal(t, "Somchai Jaidee.pdf", res.FileName)
	assert.Equal(t, filepath.Join(dir, "Somchai Jaidee.pdf"), res.Path)
	assert.GreaterOrEqual(t, res.Pages, 1)
	assert.Equal(t, res.Pages, pdfPages(t, res.PDF()))
	assert.Equal(t, "a4-portrait", res.Geometry)
}

func TestSynthesize_ExamCardIsOnePage(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	app := sampleApplication()
	card := &ExamCard{
		Application:   app,
		Position:      &models.Position{ID: "pos-1", Title: "พนักงานจ้างตามภารกิจ ตำแหน่งผู้ช่วยนักวิชาการ"},
		Organisation:  "Uthai Thani Town Municipality",
		VerifyURLBase: "https://jobs.example.go.th/verify/",
	}
	assert.Equal(t, "https://jobs.example.go.th/verify/"+app.ID, card.VerifyURL())

	res, err := e.Synthesize(context.Background(), card, CardLandscape, CardFileName(app.ExamNumber, app.FullName))
	require.NoError(t, err)
	assert.Equal(t, "0007_Somchai Jaidee.pdf", res.FileName)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 1, pdfPages(t, res.PDF()))
}

func TestSynthesize_ExamCardRequiresExamNumber(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	app := sampleApplication()
	app.ExamNumber = ""

	_, err := e.Synthesize(context.Background(), &ExamCard{Application: app}, CardLandscape, "card.pdf")
	var synthErr *Error
	require.True(t, errors.As(err, &synthErr))
	assert.Equal(t, StageRasterize, synthErr.Stage)
}
