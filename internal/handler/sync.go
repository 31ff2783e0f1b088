package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

type SyncHandler struct {
	svc *service.SyncService
}

func NewSyncHandler(svc *service.SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// DeltaSync handles GET /api/sync/delta?since=TIMESTAMP
func (h *SyncHandler) DeltaSync(c fiber.Ctx) error {
	sinceStr := fiber.Query[string](c, "since")
	if sinceStr == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_PARAM", "since query parameter is required (RFC3339 timestamp)")
	}

	since, err := service.ParseSince(sinceStr)
	if err != nil {
		return serviceError(c, err, "Sync", "fetch delta sync")
	}

	resp, err := h.svc.DeltaSync(c.Context(), middleware.UserID(c), since)
	if err != nil {
		return serviceError(c, err, "Sync", "fetch delta sync")
	}
	return c.JSON(resp)
}

// FullSync handles GET /api/sync/full
func (h *SyncHandler) FullSync(c fiber.Ctx) error {
	resp, err := h.svc.FullSync(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err, "Sync", "fetch full sync")
	}
	return c.JSON(resp)
}
