package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/repository"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

// serviceError maps a service or repository error to the API error
// envelope. what names the resource for 404/409 messages; action is used
// in the 500 message.
func serviceError(c fiber.Ctx, err error, what, action string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", what+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "DUPLICATE", what+" already exists")
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrPrivateURL):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_URL", err.Error())
	case errors.Is(err, service.ErrInvalidCategory), errors.Is(err, service.ErrReservedCategory):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CATEGORY", err.Error())
	case errors.Is(err, service.ErrUnsupportedFormat):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FORMAT", "format must be html, json or csv")
	case errors.Is(err, service.ErrInvalidFile):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILE", err.Error())
	case errors.Is(err, service.ErrInvalidSince):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return middleware.ErrorResponse(c, fiber.StatusGatewayTimeout, "TIMEOUT", "Request timed out")
	}

	middleware.Logger.Error().Err(err).Str("path", c.Route().Path).Msg(action)
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action)
}

// bindJSON decodes the body into out and validates it. It writes the error
// response itself and reports whether the handler should continue.
func bindJSON(c fiber.Ctx, out any) (bool, error) {
	if err := c.Bind().JSON(out); err != nil {
		return false, middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
	}
	if msg := middleware.ValidateStruct(out); msg != "" {
		return false, middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}
	return true, nil
}
