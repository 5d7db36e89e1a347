package upload

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/logging"

	"github.com/gofiber/fiber/v2"
)

type UploadResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// POST /api/uploads (multipart, alan adı: file)
// Dönen url ilan oluştururken images[] içinde gönderilir.
func UploadHandler(up Uploader, maxBytes int64, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return apperr.Validation("Dosya bulunamadı (alan adı: file)")
		}
		if fh.Size == 0 {
			return apperr.Validation("Dosya boş")
		}
		if maxBytes > 0 && fh.Size > maxBytes {
			return apperr.Validation("Dosya çok büyük (en fazla %d MB)", maxBytes>>20)
		}

		f, err := fh.Open()
		if err != nil {
			return apperr.Validation("Dosya okunamadı")
		}
		defer f.Close()

		// Tür istemcinin beyanına değil içeriğe göre belirlenir
		head := make([]byte, 512)
		n, err := io.ReadFull(f, head)
		if err != nil && err != io.ErrUnexpectedEOF {
			return apperr.Validation("Dosya okunamadı")
		}
		head = head[:n]
		contentType := http.DetectContentType(head)
		if _, ok := allowedTypes[normalizeType(contentType)]; !ok {
			return apperr.Validation("Sadece JPEG, PNG veya WEBP yüklenebilir")
		}

		ref, err := up.Store(c.UserContext(), fh.Filename, contentType, io.MultiReader(bytes.NewReader(head), f))
		if err != nil {
			if apperr.Is(err, apperr.CodeValidation) {
				return err
			}
			wrapped := apperr.Upstream(err, "upload")
			logging.LogError(c.UserContext(), logger, "dosya yüklenemedi", wrapped)
			return wrapped
		}

		return c.Status(fiber.StatusCreated).JSON(apperr.OK(UploadResponse{
			URL:         ref,
			ContentType: normalizeType(contentType),
			Size:        fh.Size,
		}))
	}
}
