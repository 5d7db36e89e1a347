package auth

import (
	"emlak-backend/internal/apperr"
	"emlak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxIdentityKey = "identity"

// ResolveIdentity çağıranı çözer; header yoksa anonim devam eder.
func ResolveIdentity(resolver *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := resolver.Resolve(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		if id != nil {
			c.Locals(CtxIdentityKey, id)
		}
		return c.Next()
	}
}

// IdentityFrom returns the caller stored by ResolveIdentity, nil when anonymous.
func IdentityFrom(c *fiber.Ctx) *Identity {
	id, _ := c.Locals(CtxIdentityKey).(*Identity)
	return id
}

func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFrom(c) == nil {
			return apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
		}
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		if id == nil {
			return apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
		}
		for _, r := range allowedRoles {
			if r == id.Role {
				return c.Next()
			}
		}
		return apperr.Forbidden("Bu işlem için yetkiniz yok")
	}
}
