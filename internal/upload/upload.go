// Package upload stores listing media and returns the reference saved on the
// listing. The listing core never touches file contents.
package upload

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"emlak-backend/internal/apperr"

	"github.com/oklog/ulid/v2"
)

// Uploader persists one media object and returns its public reference
// (a relative path or an absolute URL).
type Uploader interface {
	Store(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// İzin verilen görsel türleri ve uzantıları
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ObjectKey builds a collision-free key like "properties/2026/10/01J...jpg".
// Only the content type decides the extension; the client's file name is ignored.
func ObjectKey(contentType string, now time.Time) (string, error) {
	ext, ok := allowedTypes[normalizeType(contentType)]
	if !ok {
		return "", apperr.Validation("Desteklenmeyen dosya türü: %s", contentType)
	}
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return path.Join("properties", now.UTC().Format("2006/01"), strings.ToLower(id.String())+ext), nil
}

func normalizeType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
