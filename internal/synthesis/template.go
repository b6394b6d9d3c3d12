// internal/synthesis/template.go
package synthesis

import (
	"context"
	"image"

	"golang.org/x/image/font/opentype"
)

// Template is a data-bound visual template. Key identifies the template
// instance; at most one synthesis job runs per key.
type Template interface {
	Key() string
	Render(ctx context.Context, g Geometry, f *opentype.Font) (*image.RGBA, error)
}
