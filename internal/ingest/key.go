// internal/ingest/key.go
package ingest

import (
	"fmt"

	"github.com/google/uuid"
)

// BinaryExtension is used when the declared MIME type has no allow-listed extension.
const BinaryExtension = "bin"

var extensionByMime = map[string]string{
	MimeJPEG:    "jpg",
	"image/jpg": "jpeg",
	MimePNG:     "png",
	MimeWebP:    "webp",
	MimeGIF:     "gif",
	MimePDF:     "pdf",
}

var allowedExtensions = set("jpg", "jpeg", "png", "webp", "gif", "pdf", BinaryExtension)

// SafeExtension derives the key extension from the declared MIME type only.
func SafeExtension(mimeType string) string {
	if ext, ok := extensionByMime[NormalizeMime(mimeType)]; ok && allowedExtensions[ext] {
		return ext
	}
	return BinaryExtension
}

// StorageKey builds {applicationId}/{uuid}.{ext}. The application id must be a
// UUID so every key is scoped under a persisted record.
func StorageKey(applicationID, mimeType string) (string, error) {
	appID, err := uuid.Parse(applicationID)
	if err != nil {
		return "", fmt.Errorf("storage key: invalid application id %q: %w", applicationID, err)
	}
	return fmt.Sprintf("%s/%s.%s", appID.String(), uuid.NewString(), SafeExtension(mimeType)), nil
}
