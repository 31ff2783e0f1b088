package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

type StatsHandler struct {
	svc *service.StatsService
}

func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	stats, err := h.svc.GetStats(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err, "Stats", "fetch statistics")
	}
	return c.JSON(stats)
}
