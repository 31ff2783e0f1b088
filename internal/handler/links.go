package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

type LinkHealthHandler struct {
	svc *service.LinkHealthService
}

func NewLinkHealthHandler(svc *service.LinkHealthService) *LinkHealthHandler {
	return &LinkHealthHandler{svc: svc}
}

// Check handles POST /api/links/health
func (h *LinkHealthHandler) Check(c fiber.Ctx) error {
	var req model.LinkHealthRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	return c.JSON(h.svc.CheckAll(c.Context(), req.URLs))
}
