package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

type CategoryHandler struct {
	svc   *service.CategoryService
	table *classifier.Table
}

func NewCategoryHandler(svc *service.CategoryService, table *classifier.Table) *CategoryHandler {
	return &CategoryHandler{svc: svc, table: table}
}

// List handles GET /api/categories
func (h *CategoryHandler) List(c fiber.Ctx) error {
	names, err := h.svc.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err, "Category", "list categories")
	}
	return c.JSON(model.CategoryListResponse{Categories: names})
}

// Create handles POST /api/categories
func (h *CategoryHandler) Create(c fiber.Ctx) error {
	var req model.CategoryRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	name, err := h.svc.Create(c.Context(), middleware.UserID(c), req.Name)
	if err != nil {
		return serviceError(c, err, "Category", "create category")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"name": name})
}

// Delete handles DELETE /api/categories/:name. Bookmarks in the category
// move to Uncategorized.
func (h *CategoryHandler) Delete(c fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "category name is not valid path encoding")
	}
	name, msg := middleware.ValidateCategory(raw)
	if msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}

	moved, err := h.svc.Delete(c.Context(), middleware.UserID(c), name)
	if err != nil {
		return serviceError(c, err, "Category", "delete category")
	}
	return c.JSON(model.CategoryDeleteResponse{Deleted: name, Moved: moved})
}

// Definitions handles GET /api/categories/definitions and returns the
// classifier's category table.
func (h *CategoryHandler) Definitions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"categories":    h.table.Definitions(),
		"uncategorized": classifier.Uncategorized,
		"threshold":     classifier.ConfidenceThreshold,
	})
}
