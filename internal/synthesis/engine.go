// Package synthesis rasterizes data-bound templates, tiles the raster into
// fixed-size pages and writes the pages out as a PDF.
package synthesis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/image/font/opentype"

	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/metrics"
)

// ErrBusy is returned when a job for the same template instance is already
// running. The caller may retry once it finishes.
var ErrBusy = errors.New("synthesis already in progress for this template")

// Stage names a step of the synthesis sequence.
type Stage string

const (
	StageSettle    Stage = "settle"
	StageRasterize Stage = "rasterize"
	StagePaginate  Stage = "paginate"
	StageEmit      Stage = "emit"
)

// Error is a failed synthesis step. The source record is never touched.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("synthesis %s: %v", e.Stage, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Result describes an emitted document.
type Result struct {
	FileName string `json:"fileName"`
	Path     string `json:"path"`
	Geometry string `json:"geometry"`
	Pages    int    `json:"pages"`
	Bytes    int64  `json:"bytes"`

	data []byte
}

// PDF returns the emitted document.
func (r *Result) PDF() []byte { return r.data }

type Options struct {
	OutputDir   string
	SettleDelay time.Duration
	Font        *opentype.Font
}

func OptionsFromConfig(cfg config.SynthesisConfig) (Options, error) {
	f, err := LoadFont(cfg.FontPath)
	if err != nil {
		return Options{}, err
	}
	return Options{
		OutputDir:   cfg.OutputDir,
		SettleDelay: time.Duration(cfg.SettleDelay) * time.Millisecond,
		Font:        f,
	}, nil
}

type Engine struct {
	opts     Options
	log      logger.Logger
	inFlight sync.Map
}

func NewEngine(opts Options, log logger.Logger) (*Engine, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = os.TempDir()
	}
	if opts.Font == nil {
		f, err := LoadFont("")
		if err != nil {
			return nil, err
		}
		opts.Font = f
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	api.DisableConfigDir()
	return &Engine{
		opts: opts,
		log:  log.WithFields(map[string]interface{}{"component": "synthesis"}),
	}, nil
}

// Synthesize runs settle, rasterize, paginate and emit for one template
// instance. A second call for the same instance while the first is running
// returns ErrBusy without doing any work.
func (e *Engine) Synthesize(ctx context.Context, t Template, g Geometry, outputName string) (*Result, error) {
	if _, loaded := e.inFlight.LoadOrStore(t.Key(), struct{}{}); loaded {
		metrics.SynthesisResults.WithLabelValues(g.Name, "busy").Inc()
		return nil, ErrBusy
	}
	defer e.inFlight.Delete(t.Key())

	ctx, span := otel.Tracer("recruitment-portal/synthesis").Start(ctx, "synthesis.synthesize")
	defer span.End()
	span.SetAttributes(attribute.String("template", t.Key()), attribute.String("geometry", g.Name))

	start := time.Now()
	res, err := e.run(ctx, t, g, outputName)
	metrics.SynthesisDuration.WithLabelValues(g.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.SynthesisResults.WithLabelValues(g.Name, "error").Inc()
		e.log.Error("synthesis failed", map[string]interface{}{
			"template": t.Key(),
			"geometry": g.Name,
			"error":    err,
		})
		return nil, err
	}

	span.SetAttributes(attribute.Int("pages", res.Pages))
	metrics.SynthesisResults.WithLabelValues(g.Name, "ok").Inc()
	e.log.Info("document emitted", map[string]interface{}{
		"template": t.Key(),
		"geometry": g.Name,
		"file":     res.FileName,
		"pages":    res.Pages,
		"bytes":    res.Bytes,
	})
	return res, nil
}

func (e *Engine) run(ctx context.Context, t Template, g Geometry, outputName string) (*Result, error) {
	if err := e.settle(ctx); err != nil {
		return nil, &Error{Stage: StageSettle, Err: err}
	}

	raster, err := t.Render(ctx, g, e.opts.Font)
	if err != nil {
		return nil, &Error{Stage: StageRasterize, Err: err}
	}

	pages, err := paginate(raster, g)
	if err != nil {
		return nil, &Error{Stage: StagePaginate, Err: err}
	}

	pdf, err := emit(pages, g, raster.Bounds().Dx(), raster.Bounds().Dy())
	if err != nil {
		return nil, &Error{Stage: StageEmit, Err: err}
	}

	name := filepath.Base(outputName)
	path := filepath.Join(e.opts.OutputDir, name)
	if err := writeFile(path, pdf); err != nil {
		return nil, &Error{Stage: StageEmit, Err: err}
	}
	return &Result{
		FileName: name,
		Path:     path,
		Geometry: g.Name,
		Pages:    len(pages),
		Bytes:    int64(len(pdf)),
		data:     pdf,
	}, nil
}

func (e *Engine) settle(ctx context.Context) error {
	if e.opts.SettleDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// paginate cuts the raster into page-sized bands and pads each band, plus the
// geometry margin, onto a white page raster.
func paginate(raster *image.RGBA, g Geometry) ([]*image.RGBA, error) {
	b := raster.Bounds()
	pageH := g.PageHeightPx(b.Dx(), b.Dy())
	bands := Paginate(b.Dy(), pageH)
	if len(bands) == 0 {
		return nil, fmt.Errorf("empty raster %dx%d", b.Dx(), b.Dy())
	}

	margin := int(g.MarginMM * g.pxPerMM(b.Dx()))
	pages := make([]*image.RGBA, 0, len(bands))
	for _, band := range bands {
		page := image.NewRGBA(image.Rect(0, 0, b.Dx()+2*margin, pageH+2*margin))
		draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
		dst := image.Rect(margin, margin, margin+b.Dx(), margin+band.Height())
		draw.Draw(page, dst, raster, image.Pt(b.Min.X, b.Min.Y+band.Top), draw.Src)
		pages = append(pages, page)
	}
	return pages, nil
}

func emit(pages []*image.RGBA, g Geometry, rasterW, rasterH int) ([]byte, error) {
	readers := make([]io.Reader, 0, len(pages))
	for _, p := range pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, p); err != nil {
			return nil, fmt.Errorf("encode page: %w", err)
		}
		readers = append(readers, &buf)
	}

	w, h := g.PageSizeMM(rasterW, rasterH)
	imp, err := api.Import(fmt.Sprintf("dimensions:%.2f %.2f, position:c, scalefactor:1.0 rel", w, h), types.MILLIMETRES)
	if err != nil {
		return nil, fmt.Errorf("page setup: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, imp, conf); err != nil {
		return nil, fmt.Errorf("assemble pdf: %w", err)
	}

	n, err := api.PageCount(bytes.NewReader(out.Bytes()), conf)
	if err != nil {
		return nil, fmt.Errorf("verify pdf: %w", err)
	}
	if n != len(pages) {
		return nil, fmt.Errorf("verify pdf: %d pages written, %d expected", n, len(pages))
	}
	return out.Bytes(), nil
}

// writeFile replaces path atomically so readers never see a partial document.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".synth-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
