package apperr

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"validation", Validation("başlık zorunlu"), CodeValidation, fiber.StatusBadRequest},
		{"unauthorized", Unauthorized("token geçersiz"), CodeUnauthorized, fiber.StatusUnauthorized},
		{"forbidden", Forbidden("yetkiniz yok"), CodeForbidden, fiber.StatusForbidden},
		{"not found", NotFound("ilan bulunamadı"), CodeNotFound, fiber.StatusNotFound},
		{"persistence", Persistence(errors.New("pq: deadlock"), "create property"), CodePersistence, fiber.StatusInternalServerError},
		{"upstream", Upstream(errors.New("dial tcp"), "s3"), CodeUpstream, fiber.StatusBadGateway},
		{"plain", errors.New("boom"), CodeInternal, fiber.StatusInternalServerError},
		{"fiber 404", fiber.ErrNotFound, CodeNotFound, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Code(tt.err))
			assert.Equal(t, tt.status, Status(tt.err))
			assert.True(t, Is(tt.err, tt.code))
		})
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := Persistence(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`), "insert user")
	msg := PublicMessage(err)
	assert.NotContains(t, msg, "pq:")
	assert.NotContains(t, msg, "users_email_key")

	assert.Equal(t, msgInternal, PublicMessage(errors.New("secret stack")))
	assert.Equal(t, "başlık zorunlu", PublicMessage(Validation("başlık zorunlu")))
}

func TestFailEnvelope(t *testing.T) {
	env := Fail(Forbidden("yetkiniz yok"))
	assert.False(t, env.Success)
	assert.Equal(t, CodeForbidden, env.Error.Code)
	assert.Equal(t, "yetkiniz yok", env.Error.Message)

	ok := OK([]int{})
	assert.True(t, ok.Success)
	assert.NotNil(t, ok.Data)
}
