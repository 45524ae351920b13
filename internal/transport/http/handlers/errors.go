package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

// respondError maps service errors onto HTTP statuses. Internal errors are
// logged with their cause and hidden from the client.
func respondError(c *fiber.Ctx, log *logger.Logger, event string, err error, kv ...interface{}) error {
	fields := append(kv, "error", err)
	switch {
	case services.IsNotFound(err):
		log.Warnw(event, fields...)
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	case services.IsInvalidArgument(err):
		log.Warnw(event, fields...)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	default:
		log.Errorw(event, fields...)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
}

func badRequest(c *fiber.Ctx, log *logger.Logger, event string, details []string) error {
	log.Warnw(event, "details", details)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   "validation failed",
		Details: details,
	})
}

func invalidBody(c *fiber.Ctx, log *logger.Logger, event string, err error) error {
	log.Warnw(event, "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "invalid request body",
	})
}
