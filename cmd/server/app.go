package main

import (
	"context"
	"log/slog"
	"strings"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/audit"
	"emlak-backend/internal/auth"
	"emlak-backend/internal/directory"
	"emlak-backend/internal/listing"
	"emlak-backend/internal/logging"
	"emlak-backend/internal/metrics"
	"emlak-backend/internal/models"
	"emlak-backend/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
)

// errorLogWriter persists 5xx details.
type errorLogWriter interface {
	WriteErrorLog(ctx context.Context, entry models.ErrorLog) error
}

// appDeps is everything the router needs. Nil optional parts skip their routes.
type appDeps struct {
	Logger      *slog.Logger
	CORSOrigins string
	BaseURL     string
	BodyLimitMB int

	Tokens   *auth.JWTManager
	Users    auth.UserStore
	Limiter  *auth.LoginLimiter
	Listings *listing.Service

	Directory *directory.Service
	Audit     *audit.Service
	ErrorLog  errorLogWriter

	Uploader   upload.Uploader
	UploadMax  int64
	UploadDir  string // yalnızca yerel sürücüde dolu
	MetricsReg *prometheus.Registry
}

// errorHandler writes the failure envelope. Server-side failures are logged
// and stored redacted in error_logs.
func errorHandler(logger *slog.Logger, errLog errorLogWriter) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := apperr.Status(err)
		if status >= fiber.StatusInternalServerError {
			ctx := c.UserContext()
			logging.LogError(ctx, logger, "istek başarısız", err)
			if errLog != nil {
				entry := audit.NewErrorLog(logging.RequestIDFrom(ctx), c.Method(), c.Path(), apperr.Code(err), err.Error())
				if werr := errLog.WriteErrorLog(ctx, entry); werr != nil {
					logger.WarnContext(ctx, "error log yazılamadı", "error", werr)
				}
			}
		}
		return apperr.WriteError(c, err)
	}
}

func newApp(d appDeps) *fiber.App {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	cfg := fiber.Config{ErrorHandler: errorHandler(d.Logger, d.ErrorLog)}
	if d.BodyLimitMB > 0 {
		cfg.BodyLimit = d.BodyLimitMB << 20
	}
	app := fiber.New(cfg)

	app.Use(logging.RequestID())
	if d.MetricsReg != nil {
		app.Use(metrics.Middleware())
		app.Get("/metrics", metrics.Handler(d.MetricsReg))
	}

	// CORS origins'i virgülle ayrılmış string'den temizle
	if d.CORSOrigins != "" {
		origins := strings.Split(d.CORSOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		app.Use(cors.New(cors.Config{
			AllowOrigins:  strings.Join(origins, ","),
			AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			ExposeHeaders: logging.HeaderRequestID,
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(apperr.OK(fiber.Map{"status": "ok"}))
	})

	if d.UploadDir != "" {
		app.Static("/uploads", d.UploadDir)
	}

	api := app.Group("/api")
	api.Use(auth.ResolveIdentity(auth.NewResolver(d.Tokens)))
	requireAuth := auth.RequireAuth()

	// Auth
	login := auth.LoginHandler(d.Users, d.Tokens)
	if d.Limiter != nil {
		api.Post("/auth/login", d.Limiter.Middleware(), login)
	} else {
		api.Post("/auth/login", login)
	}
	api.Post("/auth/register", auth.RegisterHandler(d.Users, d.Tokens))
	api.Post("/auth/bootstrap-admin", auth.BootstrapAdminHandler(d.Users))
	api.Get("/auth/me", requireAuth, auth.MeHandler(d.Users))

	// İlanlar (liste ve detay anonim de çalışır)
	api.Get("/properties", listing.ListPropertiesHandler(d.Listings))
	api.Get("/properties/mine", requireAuth, listing.MyListingsHandler(d.Listings))
	api.Get("/properties/:id", listing.GetPropertyHandler(d.Listings))
	api.Post("/properties", requireAuth, listing.CreatePropertyHandler(d.Listings))
	api.Patch("/properties/:id", requireAuth, listing.UpdatePropertyHandler(d.Listings))
	api.Put("/properties/:id", requireAuth, listing.UpdatePropertyHandler(d.Listings))
	api.Delete("/properties/:id", requireAuth, listing.DeletePropertyHandler(d.Listings))

	if d.Uploader != nil {
		api.Post("/uploads", requireAuth, upload.UploadHandler(d.Uploader, d.UploadMax, d.Logger))
	}

	if d.Directory != nil {
		api.Get("/advisors", directory.ListAdvisorsHandler(d.Directory, d.BaseURL))
		api.Get("/advisors/:id", directory.GetAdvisorHandler(d.Directory, d.BaseURL))
		api.Get("/offices", directory.ListOfficesHandler(d.Directory, d.BaseURL))
		api.Get("/offices/:id", directory.GetOfficeHandler(d.Directory, d.BaseURL))
	}

	// Yönetici route'ları
	adminRoutes := api.Group("/admin", auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/properties/:id/moderate", listing.ModeratePropertyHandler(d.Listings))
	adminRoutes.Get("/properties/export", listing.ExportPropertiesHandler(d.Listings))

	if d.Directory != nil {
		adminRoutes.Post("/offices", directory.CreateOfficeHandler(d.Directory, d.BaseURL))
		adminRoutes.Put("/offices/:id", directory.UpdateOfficeHandler(d.Directory, d.BaseURL))
		adminRoutes.Delete("/offices/:id", directory.DeleteOfficeHandler(d.Directory))
		adminRoutes.Post("/advisors", directory.CreateAdvisorHandler(d.Directory, d.BaseURL))
		adminRoutes.Put("/advisors/:id", directory.UpdateAdvisorHandler(d.Directory, d.BaseURL))
	}

	if d.Audit != nil {
		adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(d.Audit))
		adminRoutes.Get("/error-logs", audit.ListErrorLogsHandler(d.Audit))
	}

	return app
}
