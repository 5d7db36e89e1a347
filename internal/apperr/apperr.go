// Package apperr defines the error taxonomy shared by every layer and its
// mapping onto HTTP statuses and the response envelope.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
)

// Stable machine-readable codes.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodePersistence  = "PERSISTENCE_FAILURE"
	CodeUpstream     = "UPSTREAM_FAILURE"
	CodeInternal     = "INTERNAL_ERROR"
)

// Genel mesajlar; ham veritabanı/servis hatası dışarı sızmaz.
const (
	msgPersistence = "İşlem kaydedilemedi, lütfen daha sonra tekrar deneyin"
	msgUpstream    = "Dış servis şu anda yanıt vermiyor"
	msgInternal    = "Beklenmeyen sunucu hatası"
)

func Validation(format string, args ...any) error {
	return oops.Code(CodeValidation).Errorf(format, args...)
}

func Unauthorized(format string, args ...any) error {
	return oops.Code(CodeUnauthorized).Errorf(format, args...)
}

func Forbidden(format string, args ...any) error {
	return oops.Code(CodeForbidden).Errorf(format, args...)
}

func NotFound(format string, args ...any) error {
	return oops.Code(CodeNotFound).Errorf(format, args...)
}

// Persistence wraps a storage error. The wrapped text is kept for logs only.
func Persistence(err error, operation string) error {
	return oops.Code(CodePersistence).With("operation", operation).Wrap(err)
}

// Upstream wraps a collaborator failure (upload, mail queue).
func Upstream(err error, collaborator string) error {
	return oops.Code(CodeUpstream).With("collaborator", collaborator).Wrap(err)
}

// Code returns the taxonomy code of err, CodeInternal when it carries none.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return codeForStatus(fe.Code)
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if c := fmt.Sprint(oopsErr.Code()); c != "" && c != "<nil>" {
			return c
		}
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return Code(err) == code
}

// Status maps an error to its HTTP status.
func Status(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch Code(err) {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// PublicMessage is the caller-facing message for err.
func PublicMessage(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			return msgInternal
		}
		return fe.Message
	}
	switch Code(err) {
	case CodePersistence:
		return msgPersistence
	case CodeUpstream:
		return msgUpstream
	case CodeInternal:
		return msgInternal
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the success shape of the API.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// FailureEnvelope is the failure shape of the API.
type FailureEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(err error) FailureEnvelope {
	return FailureEnvelope{Success: false, Error: ErrorBody{Code: Code(err), Message: PublicMessage(err)}}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return CodeValidation
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return CodeNotFound
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return CodeInternal
	}
}

// WriteError writes the failure envelope for err. It satisfies fiber.ErrorHandler.
func WriteError(c *fiber.Ctx, err error) error {
	return c.Status(Status(err)).JSON(Fail(err))
}
