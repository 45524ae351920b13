package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

type BoardHandler struct {
	service ports.BoardService
	logger  *logger.Logger
}

func NewBoardHandler(service ports.BoardService, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{service: service, logger: logger}
}

func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	projectID := c.Params("projectID")
	board, err := h.service.GetBoard(c.Context(), projectID)
	if err != nil {
		return respondError(c, h.logger, "board_get_failed", err, "project_id", projectID)
	}
	return c.JSON(dto.BoardToResponse(board))
}
