package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

type BookmarkHandler struct {
	ingest     *service.IngestService
	bookmarks  *service.BookmarkService
	categorize *service.CategorizeService
}

func NewBookmarkHandler(ingest *service.IngestService, bookmarks *service.BookmarkService, categorize *service.CategorizeService) *BookmarkHandler {
	return &BookmarkHandler{ingest: ingest, bookmarks: bookmarks, categorize: categorize}
}

// List handles GET /api/bookmarks?category=&q=&limit=&offset=
func (h *BookmarkHandler) List(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit")
	if limit < 0 || limit > 1000 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", "limit must be between 1 and 1000")
	}
	offset := fiber.Query[int](c, "offset")
	if offset < 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", "offset must not be negative")
	}

	resp, err := h.bookmarks.List(c.Context(), middleware.UserID(c), model.BookmarkFilter{
		Category: fiber.Query[string](c, "category"),
		Query:    fiber.Query[string](c, "q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return serviceError(c, err, "Bookmark", "list bookmarks")
	}
	return c.JSON(resp)
}

// Get handles GET /api/bookmarks/:id
func (h *BookmarkHandler) Get(c fiber.Ctx) error {
	id, msg := middleware.ValidateBookmarkID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}

	b, err := h.bookmarks.Get(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return serviceError(c, err, "Bookmark", "fetch bookmark")
	}
	return c.JSON(b)
}

// Create handles POST /api/bookmarks. Without a category the bookmark is
// auto-categorised from its URL and fetched metadata.
func (h *BookmarkHandler) Create(c fiber.Ctx) error {
	var req model.BookmarkRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	b, err := h.ingest.Create(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return serviceError(c, err, "Bookmark", "save bookmark")
	}

	Metrics.BookmarksSaved.WithLabelValues("create").Inc()
	return c.Status(fiber.StatusCreated).JSON(b)
}

// Update handles PUT /api/bookmarks/:id
func (h *BookmarkHandler) Update(c fiber.Ctx) error {
	id, msg := middleware.ValidateBookmarkID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}
	var req model.BookmarkRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	b, err := h.bookmarks.Update(c.Context(), middleware.UserID(c), id, req)
	if err != nil {
		return serviceError(c, err, "Bookmark", "update bookmark")
	}
	return c.JSON(b)
}

// UpdateCategory handles PATCH /api/bookmarks/:id/category
func (h *BookmarkHandler) UpdateCategory(c fiber.Ctx) error {
	id, msg := middleware.ValidateBookmarkID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}
	var req model.CategoryUpdateRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	userID := middleware.UserID(c)
	if err := h.bookmarks.UpdateCategory(c.Context(), userID, id, req.Category); err != nil {
		return serviceError(c, err, "Bookmark", "update category")
	}
	b, err := h.bookmarks.Get(c.Context(), userID, id)
	if err != nil {
		return serviceError(c, err, "Bookmark", "fetch bookmark")
	}
	return c.JSON(b)
}

// Delete handles DELETE /api/bookmarks/:id
func (h *BookmarkHandler) Delete(c fiber.Ctx) error {
	id, msg := middleware.ValidateBookmarkID(c.Params("id"))
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}

	if err := h.bookmarks.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return serviceError(c, err, "Bookmark", "delete bookmark")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AutoCategorize handles POST /api/bookmarks/auto-categorize. The body is
// optional; {"dryRun": true} reports the changes without writing them.
func (h *BookmarkHandler) AutoCategorize(c fiber.Ctx) error {
	var req model.AutoCategorizeRequest
	if len(c.Body()) > 0 {
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
	}

	start := time.Now()
	res, err := h.categorize.AutoCategorize(c.Context(), middleware.UserID(c), req.DryRun)
	if err != nil {
		return serviceError(c, err, "Bookmark", "auto-categorize bookmarks")
	}
	Metrics.AutoCategorizeDuration.Observe(time.Since(start).Seconds())
	for _, ch := range res.Changes {
		Metrics.Classifications.WithLabelValues(ch.To).Inc()
	}
	return c.JSON(res)
}
