package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

// MetadataInvalidator drops a cached metadata entry.
type MetadataInvalidator interface {
	InvalidateMetadata(ctx context.Context, pageURL string) error
}

type MetadataHandler struct {
	fetcher service.MetadataFetcher
	cache   MetadataInvalidator
}

// NewMetadataHandler returns a handler over fetcher. cache may be nil.
func NewMetadataHandler(fetcher service.MetadataFetcher, cache MetadataInvalidator) *MetadataHandler {
	return &MetadataHandler{fetcher: fetcher, cache: cache}
}

// Get handles GET /api/metadata?url=X. Loopback and private hosts are
// refused; any other page that cannot be fetched yields empty metadata
// with a 200.
func (h *MetadataHandler) Get(c fiber.Ctx) error {
	pageURL, ok, err := pageURLParam(c)
	if !ok {
		return err
	}
	return c.JSON(h.fetcher.Fetch(c.Context(), pageURL))
}

// Invalidate handles DELETE /api/metadata?url=X. It drops the cached entry
// so the next Get fetches the page again.
func (h *MetadataHandler) Invalidate(c fiber.Ctx) error {
	pageURL, ok, err := pageURLParam(c)
	if !ok {
		return err
	}
	if h.cache != nil {
		if err := h.cache.InvalidateMetadata(c.Context(), pageURL); err != nil {
			return serviceError(c, err, "Metadata", "invalidate metadata")
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// pageURLParam reads and checks the url parameter. Like bindJSON it writes
// the error response itself and reports whether the handler should go on.
func pageURLParam(c fiber.Ctx) (string, bool, error) {
	raw, msg := middleware.ValidateURLParam(fiber.Query[string](c, "url"))
	if msg != "" {
		return "", false, middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_PARAM", msg)
	}
	pageURL, err := service.NormalizeFetchURL(raw)
	if err != nil {
		return "", false, serviceError(c, err, "Page", "fetch metadata")
	}
	return pageURL, true, nil
}
