package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalUploader writes media under a directory served by the HTTP server.
type LocalUploader struct {
	dir    string
	prefix string // URL yolu, örn: /uploads
	now    func() time.Time
}

func NewLocalUploader(dir, prefix string) *LocalUploader {
	return &LocalUploader{dir: dir, prefix: "/" + strings.Trim(prefix, "/"), now: time.Now}
}

// Store returns a relative reference such as /uploads/properties/2026/10/x.jpg.
func (u *LocalUploader) Store(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	key, err := ObjectKey(contentType, u.now())
	if err != nil {
		return "", err
	}

	filePath := filepath.Join(u.dir, filepath.FromSlash(key))

	// Klasörü oluştur (yoksa)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("klasör oluşturulamadı: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("dosya oluşturulamadı: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		_ = os.Remove(filePath)
		return "", fmt.Errorf("dosya yazılamadı: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(filePath)
		return "", fmt.Errorf("dosya kapatılamadı: %w", err)
	}

	return path.Join(u.prefix, key), nil
}
