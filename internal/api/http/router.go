package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/agency-admin/internal/api/http/handlers"
	"github.com/spec-kit/agency-admin/internal/auth"
	"github.com/spec-kit/agency-admin/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Leads          *handlers.LeadsHandler
	Posts          *handlers.ContentHandler
	Cases          *handlers.ContentHandler
	Services       *handlers.ContentHandler
	APIKeys        *handlers.APIKeysHandler
	Audit          *handlers.AuditHandler
	Notifications  *handlers.NotificationsHandler
	EmailTemplates *handlers.EmailTemplatesHandler
	Webhooks       *handlers.WebhooksHandler
	Settings       *handlers.SettingsHandler
	Media          *handlers.MediaHandler
	Redirects      *handlers.RedirectsHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	// Registered before the bearer group so API key requests never reach it.
	public := api.Group("/public", cfg.AuthMiddleware.APIKey)
	public.Get("/posts", auth.RequireScope(string(domain.PermBlogRead)), cfg.Posts.ListPublished)
	public.Get("/posts/:slug", auth.RequireScope(string(domain.PermBlogRead)), cfg.Posts.GetPublished)
	public.Get("/cases", auth.RequireScope(string(domain.PermCaseRead)), cfg.Cases.ListPublished)
	public.Get("/cases/:slug", auth.RequireScope(string(domain.PermCaseRead)), cfg.Cases.GetPublished)
	public.Get("/services", auth.RequireScope(string(domain.PermServiceRead)), cfg.Services.ListPublished)
	public.Get("/services/:slug", auth.RequireScope(string(domain.PermServiceRead)), cfg.Services.GetPublished)
	public.Get("/settings", auth.RequireScope(string(domain.PermSettingsView)), cfg.Settings.Get)
	public.Get("/redirects/resolve", auth.RequireScope(string(domain.PermSettingsView)), cfg.Redirects.Resolve)
	public.Post("/leads", cfg.Leads.Create)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())
	protected.Post("/auth/logout", cfg.Auth.Logout)
	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)
	protected.Put("/me/preferences", cfg.Auth.UpdatePreferences)

	// Get and Update also serve the caller's own record.
	protected.Get("/users", auth.RequireAdmin(), cfg.Users.List)
	protected.Post("/users", auth.RequireAdmin(), cfg.Users.Create)
	protected.Get("/users/:id", cfg.Users.Get)
	protected.Put("/users/:id", cfg.Users.Update)
	protected.Patch("/users/:id/role", auth.RequireAdmin(), cfg.Users.ChangeRole)
	protected.Delete("/users/:id", auth.RequireAdmin(), cfg.Users.Delete)

	leads := protected.Group("/leads")
	leads.Get("/", cfg.Leads.List)
	leads.Get("/stats", cfg.Leads.Stats)
	leads.Get("/export", cfg.Leads.Export)
	leads.Post("/", cfg.Leads.Create)
	leads.Post("/quick", cfg.Leads.QuickCreate)
	leads.Get("/:id", cfg.Leads.Get)
	leads.Put("/:id", cfg.Leads.Update)
	leads.Delete("/:id", cfg.Leads.Delete)
	leads.Post("/:id/score", cfg.Leads.RecalculateScore)
	leads.Get("/:id/activities", cfg.Leads.Activities)

	registerContent(protected.Group("/posts"), cfg.Posts)
	registerContent(protected.Group("/cases"), cfg.Cases)
	registerContent(protected.Group("/services"), cfg.Services)

	keys := protected.Group("/api-keys", auth.RequirePermission(domain.PermAPIKeysManage))
	keys.Get("/", cfg.APIKeys.List)
	keys.Post("/", cfg.APIKeys.Create)
	keys.Put("/:id", cfg.APIKeys.Update)
	keys.Post("/:id/regenerate", cfg.APIKeys.Regenerate)
	keys.Delete("/:id", cfg.APIKeys.Delete)

	audit := protected.Group("/audit-logs", auth.RequireAdmin())
	audit.Get("/", cfg.Audit.List)
	audit.Get("/stats", cfg.Audit.Stats)
	audit.Post("/purge", cfg.Audit.Purge)

	notifications := protected.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)

	templates := protected.Group("/email-templates", auth.RequireAdmin())
	templates.Get("/", cfg.EmailTemplates.List)
	templates.Post("/", cfg.EmailTemplates.Create)
	templates.Get("/:id", cfg.EmailTemplates.Get)
	templates.Put("/:id", cfg.EmailTemplates.Update)
	templates.Delete("/:id", cfg.EmailTemplates.Delete)
	templates.Post("/:id/preview", cfg.EmailTemplates.Preview)

	webhooks := protected.Group("/webhooks", auth.RequireAdmin())
	webhooks.Get("/", cfg.Webhooks.List)
	webhooks.Post("/", cfg.Webhooks.Create)
	webhooks.Get("/:id", cfg.Webhooks.Get)
	webhooks.Put("/:id", cfg.Webhooks.Update)
	webhooks.Delete("/:id", cfg.Webhooks.Delete)
	webhooks.Get("/:id/logs", cfg.Webhooks.Logs)
	webhooks.Post("/:id/test", cfg.Webhooks.Test)
	webhooks.Post("/:id/regenerate-secret", cfg.Webhooks.RegenerateSecret)

	protected.Get("/settings", auth.RequirePermission(domain.PermSettingsView), cfg.Settings.Get)
	protected.Put("/settings", cfg.Settings.Update)
	protected.Post("/settings/maintenance", cfg.Settings.ToggleMaintenance)

	media := protected.Group("/media")
	media.Get("/", cfg.Media.List)
	media.Get("/stats", cfg.Media.Stats)
	media.Get("/folders", cfg.Media.Folders)
	media.Post("/", cfg.Media.Create)
	media.Post("/bulk-delete", cfg.Media.BulkDelete)
	media.Get("/:id", cfg.Media.Get)
	media.Put("/:id", cfg.Media.Update)
	media.Delete("/:id", cfg.Media.Delete)

	redirects := protected.Group("/redirects", auth.RequireAdmin())
	redirects.Get("/", cfg.Redirects.List)
	redirects.Get("/stats", cfg.Redirects.Stats)
	redirects.Post("/", cfg.Redirects.Create)
	redirects.Get("/:id", cfg.Redirects.Get)
	redirects.Put("/:id", cfg.Redirects.Update)
	redirects.Delete("/:id", cfg.Redirects.Delete)
}

func registerContent(group fiber.Router, h *handlers.ContentHandler) {
	group.Get("/", h.List)
	group.Post("/", h.Create)
	group.Get("/:id", h.Get)
	group.Put("/:id", h.Update)
	group.Delete("/:id", h.Delete)
	group.Post("/:id/publish", h.TogglePublish)
	group.Post("/:id/feature", h.ToggleFeatured)
}
