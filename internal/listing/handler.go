package listing

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Geçersiz ilan ID")
	}
	return uint(id), nil
}

// GET /api/properties?category=&province=&min_price=&status=...
func ListPropertiesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := ParseFilters(c, svc.Mode())
		if err != nil {
			return err
		}
		views, err := svc.List(c.UserContext(), auth.IdentityFrom(c), f)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(views))
	}
}

// GET /api/properties/mine
func MyListingsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		views, err := svc.MyListings(c.UserContext(), auth.IdentityFrom(c))
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(views))
	}
}

// GET /api/properties/:id
func GetPropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		view, err := svc.Get(c.UserContext(), auth.IdentityFrom(c), id)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(view))
	}
}

// POST /api/properties
func CreatePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}
		view, err := svc.Create(c.UserContext(), auth.IdentityFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(apperr.OK(view))
	}
}

// PATCH /api/properties/:id (PUT ile de çalışır)
func UpdatePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var body PatchRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}
		view, err := svc.Update(c.UserContext(), auth.IdentityFrom(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(view))
	}
}

// DELETE /api/properties/:id
func DeletePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), auth.IdentityFrom(c), id); err != nil {
			return err
		}
		return c.JSON(apperr.OK(fiber.Map{"id": id, "message": "İlan silindi"}))
	}
}

// POST /api/admin/properties/:id/moderate
func ModeratePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var body ModerationRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}
		view, err := svc.Moderate(c.UserContext(), auth.IdentityFrom(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(view))
	}
}

// GET /api/admin/properties/export: filtrelerle birlikte xlsx döner
func ExportPropertiesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := ParseFilters(c, svc.Mode())
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := svc.Export(c.UserContext(), auth.IdentityFrom(c), f, &buf); err != nil {
			return err
		}
		filename := fmt.Sprintf("ilanlar-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(buf.Bytes())
	}
}
