package directory

import (
	"strconv"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func parseID(c *fiber.Ctx, msg string) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("%s", msg)
	}
	return uint(id), nil
}

// ----------------------------------------
// HERKESE AÇIK
// ----------------------------------------

// GET /api/advisors?office_id=
func ListAdvisorsHandler(svc *Service, baseURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var officeID *uint
		if raw := c.Query("office_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return apperr.Validation("Geçersiz ofis ID")
			}
			v := uint(id)
			officeID = &v
		}
		advisors, err := svc.ListAdvisors(c.UserContext(), officeID)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(toAdvisorResponses(advisors, baseURL)))
	}
}

// GET /api/advisors/:id
func GetAdvisorHandler(svc *Service, baseURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "Geçersiz danışman ID")
		if err != nil {
			return err
		}
		p, err := svc.GetAdvisor(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(toAdvisorResponse(p, baseURL)))
	}
}

// GET /api/offices
func ListOfficesHandler(svc *Service, baseURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offices, err := svc.ListOffices(c.UserContext())
		if err != nil {
			return err
		}
		res := make([]OfficeResponse, 0, len(offices))
		for i := range offices {
			res = append(res, toOfficeResponse(&offices[i], baseURL))
		}
		return c.JSON(apperr.OK(res))
	}
}

// GET /api/offices/:id
func GetOfficeHandler(svc *Service, baseURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "Geçersiz ofis ID")
		if err != nil {
			return err
		}
		o, err := svc.GetOffice(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(toOfficeResponse(o, baseURL)))
	}
}

// ----------------------------------------
// YÖNETİCİ
// ----------------------------------------

// POST /api/admin/offices
func CreateOfficeHandler(svc *Service, baseURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OfficeRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz veri gönderildi")
		}
		o, err := svc.CreateOffice(c.UserContext(), auth.IdentityFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(apperr.OK(toOfficeResponse(o, baseURL)))
	}
}

// PUT /api/admin/offices/:id
func UpdateOfficeHandler(svc *Service, baseURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "Geçersiz ofis ID")
		if err != nil {
			return err
		}
		var body OfficeRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz veri gönderildi")
		}
		o, err := svc.UpdateOffice(c.UserContext(), auth.IdentityFrom(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(toOfficeResponse(o, baseURL)))
	}
}

// DELETE /api/admin/offices/:id
func DeleteOfficeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "Geçersiz ofis ID")
		if err != nil {
			return err
		}
		if err := svc.DeleteOffice(c.UserContext(), auth.IdentityFrom(c), id); err != nil {
			return err
		}
		return c.JSON(apperr.OK(fiber.Map{"id": id, "message": "Ofis silindi"}))
	}
}

// POST /api/admin/advisors
func CreateAdvisorHandler(svc *Service, baseURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAdvisorRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz veri gönderildi")
		}
		p, err := svc.CreateAdvisor(c.UserContext(), auth.IdentityFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(apperr.OK(toAdvisorResponse(p, baseURL)))
	}
}

// PUT /api/admin/advisors/:id
func UpdateAdvisorHandler(svc *Service, baseURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "Geçersiz danışman ID")
		if err != nil {
			return err
		}
		var body UpdateAdvisorRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz veri gönderildi")
		}
		p, err := svc.UpdateAdvisor(c.UserContext(), auth.IdentityFrom(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(toAdvisorResponse(p, baseURL)))
	}
}
