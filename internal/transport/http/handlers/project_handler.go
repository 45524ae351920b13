package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

type ProjectHandler struct {
	service ports.ProjectService
	logger  *logger.Logger
}

func NewProjectHandler(service ports.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, logger: logger}
}

func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, h.logger, "project_create_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return badRequest(c, h.logger, "project_create_validation_failed", errors)
	}

	h.logger.Infow("project_create_request", "name", req.Name)
	project, err := h.service.CreateProject(c.Context(), ports.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, h.logger, "project_create_failed", err)
	}

	h.logger.Infow("project_create_success", "id", project.ID)
	return c.Status(fiber.StatusCreated).JSON(dto.ProjectToResponse(project))
}

func (h *ProjectHandler) GetProjects(c *fiber.Ctx) error {
	projects, err := h.service.GetProjects(c.Context())
	if err != nil {
		return respondError(c, h.logger, "project_list_failed", err)
	}
	return c.JSON(dto.ProjectsToResponse(projects))
}

func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	id := c.Params("projectID")
	project, err := h.service.GetProjectByID(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, "project_get_failed", err, "id", id)
	}
	return c.JSON(dto.ProjectToResponse(project))
}

func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	id := c.Params("projectID")
	var req dto.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, h.logger, "project_update_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return badRequest(c, h.logger, "project_update_validation_failed", errors)
	}

	h.logger.Infow("project_update_request", "id", id)
	project, err := h.service.UpdateProject(c.Context(), id, ports.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, h.logger, "project_update_failed", err, "id", id)
	}
	return c.JSON(dto.ProjectToResponse(project))
}

func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	id := c.Params("projectID")
	h.logger.Infow("project_delete_request", "id", id)
	if err := h.service.DeleteProject(c.Context(), id); err != nil {
		return respondError(c, h.logger, "project_delete_failed", err, "id", id)
	}
	h.logger.Infow("project_delete_success", "id", id)
	return c.SendStatus(fiber.StatusNoContent)
}
