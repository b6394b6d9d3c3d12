// internal/ingest/compressor.go
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedFormat = errors.New("compressor: unsupported format")
	ErrNotShrunk         = errors.New("compressor: output not smaller than input")
)

// Compressor recompresses raster image bytes. Implementations must keep the
// MIME type of their input.
type Compressor interface {
	Compress(ctx context.Context, data []byte, mimeType string) ([]byte, error)
}

// NoopCompressor returns its input untouched.
type NoopCompressor struct{}

func (NoopCompressor) Compress(_ context.Context, data []byte, _ string) ([]byte, error) {
	return data, nil
}

type CompressionOptions struct {
	TargetBytes    int64
	MaxEdge        int
	MinJPEGQuality int
}

// ImagingCompressor bounds the longest edge and walks JPEG quality down until
// the output fits the target, then keeps shrinking the raster.
type ImagingCompressor struct {
	opts CompressionOptions
}

const (
	startJPEGQuality = 85
	qualityStep      = 10
	shrinkFactor     = 0.8
	minShrinkEdge    = 64
)

func NewImagingCompressor(opts CompressionOptions) *ImagingCompressor {
	if opts.TargetBytes <= 0 {
		opts.TargetBytes = 1024 * 1024
	}
	if opts.MaxEdge <= 0 {
		opts.MaxEdge = 1200
	}
	if opts.MinJPEGQuality <= 0 || opts.MinJPEGQuality > startJPEGQuality {
		opts.MinJPEGQuality = 40
	}
	return &ImagingCompressor{opts: opts}
}

func (c *ImagingCompressor) Compress(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	mimeType = NormalizeMime(mimeType)
	var format imaging.Format
	switch mimeType {
	case MimeJPEG, "image/jpg":
		format = imaging.JPEG
	case MimePNG:
		format = imaging.PNG
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	img = c.fit(img)

	if format == imaging.JPEG {
		for q := startJPEGQuality; q >= c.opts.MinJPEGQuality; q -= qualityStep {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out, err := encode(img, format, q)
			if err != nil {
				return nil, err
			}
			if int64(len(out)) <= c.opts.TargetBytes {
				return out, nil
			}
		}
	}

	quality := c.opts.MinJPEGQuality
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := encode(img, format, quality)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		if int64(len(out)) <= c.opts.TargetBytes || b.Dx() <= minShrinkEdge || b.Dy() <= minShrinkEdge {
			return out, nil
		}
		img = imaging.Resize(img, int(float64(b.Dx())*shrinkFactor), 0, imaging.Lanczos)
	}
}

func (c *ImagingCompressor) fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= c.opts.MaxEdge && b.Dy() <= c.opts.MaxEdge {
		return img
	}
	return imaging.Fit(img, c.opts.MaxEdge, c.opts.MaxEdge, imaging.Lanczos)
}

func encode(img image.Image, format imaging.Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if format == imaging.JPEG {
		err = imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality))
	} else {
		err = imaging.Encode(&buf, img, format, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}
