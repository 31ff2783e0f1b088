package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/devilqueenlove/BookMyWebs/internal/handler"
	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health     *handler.HealthHandler
	Bookmark   *handler.BookmarkHandler
	Category   *handler.CategoryHandler
	Classify   *handler.ClassifyHandler
	Metadata   *handler.MetadataHandler
	Transfer   *handler.TransferHandler
	LinkHealth *handler.LinkHealthHandler
	Sync       *handler.SyncHandler
	Stats      *handler.StatsHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Health checks and metrics (no user needed)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	api := app.Group("/api")

	// Classifier and metadata routes work without a user
	metadataLimit := middleware.NewLimiter(middleware.LimitMetadata).Handler()
	api.Get("/metadata", metadataLimit, h.Metadata.Get)
	api.Post("/categorize", middleware.NewLimiter(middleware.LimitClassify).Handler(), h.Classify.Categorize)
	api.Post("/suggest", metadataLimit, h.Classify.Suggest)
	api.Get("/categories/definitions", h.Category.Definitions)

	// Everything below acts on one user's collection. RequireUser runs
	// first so per-user limiters key on the validated id.
	user := middleware.RequireUser()
	write := middleware.NewLimiter(middleware.LimitBookmarkWrite).Handler()

	// Bookmark routes
	api.Get("/bookmarks", user, h.Bookmark.List)
	api.Post("/bookmarks", user, write, h.Bookmark.Create)
	api.Post("/bookmarks/auto-categorize", user, middleware.NewLimiter(middleware.LimitAutoCategorize).Handler(), h.Bookmark.AutoCategorize)
	api.Get("/bookmarks/:id", user, h.Bookmark.Get)
	api.Put("/bookmarks/:id", user, write, h.Bookmark.Update)
	api.Patch("/bookmarks/:id/category", user, write, h.Bookmark.UpdateCategory)
	api.Delete("/bookmarks/:id", user, write, h.Bookmark.Delete)

	// Cache eviction costs the next caller an upstream fetch
	api.Delete("/metadata", user, write, h.Metadata.Invalidate)

	// Category routes
	api.Get("/categories", user, h.Category.List)
	api.Post("/categories", user, write, h.Category.Create)
	api.Delete("/categories/:name", user, write, h.Category.Delete)

	// Import/export routes
	api.Get("/export", user, middleware.NewLimiter(middleware.LimitExport).Handler(), h.Transfer.Export)
	api.Post("/import", user, middleware.NewLimiter(middleware.LimitImport).Handler(), h.Transfer.Import)

	// Link health
	api.Post("/links/health", user, middleware.NewLimiter(middleware.LimitLinkHealth).Handler(), h.LinkHealth.Check)

	// Sync routes
	syncLimit := middleware.NewLimiter(middleware.LimitSync).Handler()
	api.Get("/sync/delta", user, syncLimit, h.Sync.DeltaSync)
	api.Get("/sync/full", user, syncLimit, h.Sync.FullSync)

	// Stats routes
	api.Get("/stats", user, middleware.NewLimiter(middleware.LimitStats).Handler(), h.Stats.GetStats)
}
