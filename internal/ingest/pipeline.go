// Package ingest turns a user-selected file into an attachment record: it
// gates MIME type and size, recompresses raster images on a best-effort basis,
// derives a preview and, at submission time, assigns the storage key.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/metrics"
)

var (
	ErrUnknownSlot  = errors.New("unknown attachment slot")
	ErrTypeRejected = errors.New("file type not accepted for slot")
	ErrSizeRejected = errors.New("file exceeds size limit")
)

const (
	msgTypeRejected = "ประเภทไฟล์ไม่ถูกต้อง (รองรับ JPG, PNG, WebP, PDF)"
	msgSizeRejected = "ขนาดไฟล์ต้องไม่เกิน 5 MB"
	msgUnknownSlot  = "ไม่พบประเภทเอกสารที่ระบุ"
)

// IngestError is a field-addressable rejection from the validation gate.
type IngestError struct {
	Field   string
	Reason  error
	Message string
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Reason)
}

func (e *IngestError) Unwrap() error { return e.Reason }

// File is an uploaded file as declared by the client.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

type PreviewKind string

const (
	PreviewThumbnail PreviewKind = "thumbnail"
	PreviewDocument  PreviewKind = "document"
)

// Preview is UI feedback only; it is never written to storage.
type Preview struct {
	Kind   PreviewKind `json:"kind"`
	Image  []byte      `json:"-"`
	Width  int         `json:"width,omitempty"`
	Height int         `json:"height,omitempty"`
}

// Record is a populated attachment slot.
type Record struct {
	Slot         SlotKey  `json:"slot"`
	OriginalName string   `json:"originalName"`
	MimeType     string   `json:"mimeType"`
	ByteSize     int64    `json:"byteSize"`
	OriginalSize int64    `json:"originalSize"`
	Compressed   bool     `json:"compressed"`
	Preview      *Preview `json:"-"`
	StorageKey   string   `json:"storageKey,omitempty"`

	data []byte
}

// Bytes returns the payload to be written at submission.
func (r *Record) Bytes() []byte { return r.data }

type Options struct {
	MaxBytes       int64
	TargetBytes    int64
	MaxEdge        int
	MinJPEGQuality int
	PreviewEdge    int
}

func OptionsFromConfig(cfg config.IngestionConfig) Options {
	return Options{
		MaxBytes:       cfg.MaxBytes,
		TargetBytes:    cfg.TargetBytes,
		MaxEdge:        cfg.MaxEdge,
		MinJPEGQuality: cfg.MinJPEGQuality,
		PreviewEdge:    cfg.PreviewEdge,
	}
}

func (o Options) CompressionOptions() CompressionOptions {
	return CompressionOptions{TargetBytes: o.TargetBytes, MaxEdge: o.MaxEdge, MinJPEGQuality: o.MinJPEGQuality}
}

type Pipeline struct {
	opts       Options
	compressor Compressor
	log        logger.Logger
}

func NewPipeline(opts Options, compressor Compressor, log logger.Logger) *Pipeline {
	if opts.MaxBytes <= 0 || opts.MaxBytes > MaxUploadBytes {
		opts.MaxBytes = MaxUploadBytes
	}
	if opts.PreviewEdge <= 0 {
		opts.PreviewEdge = 160
	}
	if compressor == nil {
		compressor = NoopCompressor{}
	}
	return &Pipeline{
		opts:       opts,
		compressor: compressor,
		log:        log.WithFields(map[string]interface{}{"component": "ingest"}),
	}
}

// Ingest validates and prepares a file for the given slot. Gate violations
// return *IngestError before any processing happens.
func (p *Pipeline) Ingest(ctx context.Context, key SlotKey, f File) (*Record, error) {
	mimeType := NormalizeMime(f.MimeType)
	size := int64(len(f.Data))

	if err := p.gate(key, mimeType, size); err != nil {
		metrics.IngestResults.WithLabelValues(string(key), "rejected").Inc()
		return nil, err
	}

	rec := &Record{
		Slot:         key,
		OriginalName: f.Name,
		MimeType:     mimeType,
		ByteSize:     size,
		OriginalSize: size,
		data:         f.Data,
	}

	if IsImage(mimeType) {
		out, err := p.compress(ctx, f.Data, mimeType)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		switch {
		case err != nil:
			metrics.CompressionOutcomes.WithLabelValues(mimeType, "fallback").Inc()
			p.log.Debug("compression fell back to original", map[string]interface{}{
				"slot":  string(key),
				"error": err,
			})
		case int64(len(out)) >= size:
			metrics.CompressionOutcomes.WithLabelValues(mimeType, "fallback").Inc()
		default:
			metrics.CompressionOutcomes.WithLabelValues(mimeType, "compressed").Inc()
			metrics.CompressionRatio.Observe(float64(len(out)) / float64(size))
			rec.data = out
			rec.ByteSize = int64(len(out))
			rec.Compressed = true
		}
	} else {
		metrics.CompressionOutcomes.WithLabelValues(mimeType, "skipped").Inc()
	}

	rec.Preview = p.preview(rec.data, mimeType)
	metrics.IngestResults.WithLabelValues(string(key), "accepted").Inc()

	p.log.Info("attachment ingested", map[string]interface{}{
		"slot":         string(key),
		"mimeType":     mimeType,
		"originalSize": size,
		"byteSize":     rec.ByteSize,
		"compressed":   rec.Compressed,
	})
	return rec, nil
}

func (p *Pipeline) gate(key SlotKey, mimeType string, size int64) error {
	slot, ok := LookupSlot(key)
	if !ok {
		return &IngestError{Field: string(key), Reason: ErrUnknownSlot, Message: msgUnknownSlot}
	}
	if !slot.Accepts(mimeType) {
		return &IngestError{Field: string(key), Reason: ErrTypeRejected, Message: msgTypeRejected}
	}
	if size > p.opts.MaxBytes {
		return &IngestError{Field: string(key), Reason: ErrSizeRejected, Message: msgSizeRejected}
	}
	return nil
}

type compressResult struct {
	data []byte
	err  error
}

// compress runs the compressor on its own goroutine and waits for it or ctx.
func (p *Pipeline) compress(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	done := make(chan compressResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- compressResult{err: fmt.Errorf("compressor panic: %v", r)}
			}
		}()
		out, err := p.compressor.Compress(ctx, data, mimeType)
		done <- compressResult{data: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err == nil && len(res.data) == 0 {
			return nil, ErrNotShrunk
		}
		return res.data, res.err
	}
}

func (p *Pipeline) preview(data []byte, mimeType string) *Preview {
	if !IsImage(mimeType) {
		return &Preview{Kind: PreviewDocument}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return &Preview{Kind: PreviewDocument}
	}
	thumb := imaging.Fit(img, p.opts.PreviewEdge, p.opts.PreviewEdge, imaging.Box)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return &Preview{Kind: PreviewDocument}
	}
	b := thumb.Bounds()
	return &Preview{Kind: PreviewThumbnail, Image: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}
}
