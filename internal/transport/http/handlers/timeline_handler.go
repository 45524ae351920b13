package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

const (
	defaultTimelineLimit = 50
	maxTimelineLimit     = 500
)

type TimelineHandler struct {
	repo     ports.TimelineRepository
	projects ports.ProjectService
	logger   *logger.Logger
}

func NewTimelineHandler(repo ports.TimelineRepository, projects ports.ProjectService, logger *logger.Logger) *TimelineHandler {
	return &TimelineHandler{repo: repo, projects: projects, logger: logger}
}

func (h *TimelineHandler) GetEvents(c *fiber.Ctx) error {
	projectID := c.Params("projectID")
	if _, err := h.projects.GetProjectByID(c.Context(), projectID); err != nil {
		return respondError(c, h.logger, "timeline_project_lookup_failed", err, "project_id", projectID)
	}

	if rid := c.Query("resource_id"); rid != "" {
		rtype := c.Query("resource_type", domain.ResourceTypeTask)
		events, err := h.repo.GetByResource(c.Context(), projectID, rtype, rid)
		if err != nil {
			return respondError(c, h.logger, "timeline_list_failed", err, "project_id", projectID)
		}
		return c.JSON(events)
	}

	limit := defaultTimelineLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid limit"})
		}
		if n > maxTimelineLimit {
			n = maxTimelineLimit
		}
		limit = n
	}

	events, err := h.repo.GetByProject(c.Context(), projectID, limit)
	if err != nil {
		return respondError(c, h.logger, "timeline_list_failed", err, "project_id", projectID)
	}
	return c.JSON(events)
}
