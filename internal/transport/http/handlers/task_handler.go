package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

type TaskHandler struct {
	service ports.TaskService
	logger  *logger.Logger
}

func NewTaskHandler(service ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	projectID := c.Params("projectID")
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, h.logger, "task_create_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return badRequest(c, h.logger, "task_create_validation_failed", errors)
	}

	h.logger.Infow("task_create_request", "project_id", projectID, "column", req.Column)
	task, err := h.service.CreateTask(c.Context(), ports.CreateTaskInput{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Column:      domain.Column(req.Column),
		Assignee:    req.Assignee,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return respondError(c, h.logger, "task_create_failed", err, "project_id", projectID)
	}

	h.logger.Infow("task_create_success", "id", task.ID, "position", task.Position)
	return c.Status(fiber.StatusCreated).JSON(dto.TaskToResponse(task))
}

func (h *TaskHandler) GetTasks(c *fiber.Ctx) error {
	projectID := c.Params("projectID")

	var column *domain.Column
	if raw := c.Query("column"); raw != "" {
		col, ok := domain.ParseColumn(raw)
		if !ok {
			return badRequest(c, h.logger, "task_list_invalid_column", []string{"column " + raw + " is not a board column"})
		}
		column = &col
	}

	tasks, err := h.service.GetTasks(c.Context(), projectID, column)
	if err != nil {
		return respondError(c, h.logger, "task_list_failed", err, "project_id", projectID)
	}
	return c.JSON(dto.TasksToResponse(tasks))
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	projectID, id := c.Params("projectID"), c.Params("taskID")
	task, err := h.service.GetTask(c.Context(), projectID, id)
	if err != nil {
		return respondError(c, h.logger, "task_get_failed", err, "id", id, "project_id", projectID)
	}
	return c.JSON(dto.TaskToResponse(task))
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	projectID, id := c.Params("projectID"), c.Params("taskID")
	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, h.logger, "task_update_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return badRequest(c, h.logger, "task_update_validation_failed", errors)
	}

	h.logger.Infow("task_update_request", "id", id, "project_id", projectID)
	task, err := h.service.UpdateTask(c.Context(), projectID, id, ports.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		DueDate:     req.DueDate,
		Column:      req.GetColumn(),
	})
	if err != nil {
		return respondError(c, h.logger, "task_update_failed", err, "id", id, "project_id", projectID)
	}
	return c.JSON(dto.TaskToResponse(task))
}

func (h *TaskHandler) MoveTask(c *fiber.Ctx) error {
	projectID, id := c.Params("projectID"), c.Params("taskID")
	var req dto.MoveTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, h.logger, "task_move_body_parse_failed", err)
	}
	if errors := req.Validate(); len(errors) > 0 {
		return badRequest(c, h.logger, "task_move_validation_failed", errors)
	}

	h.logger.Infow("task_move_request", "id", id, "project_id", projectID, "column", req.Column, "position", *req.Position)
	res, err := h.service.MoveTask(c.Context(), ports.MoveInput{
		ProjectID: projectID,
		TaskID:    id,
		Column:    domain.Column(req.Column),
		Position:  *req.Position,
	})
	if err != nil {
		return respondError(c, h.logger, "task_move_failed", err, "id", id, "project_id", projectID)
	}

	return c.JSON(dto.MoveTaskResponse{
		Changed:      res.Changed,
		FromColumn:   res.From.Column,
		FromPosition: res.FromPosition,
		Shifted:      res.Shifted,
		Task:         dto.TaskToResponse(res.Task),
	})
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	projectID, id := c.Params("projectID"), c.Params("taskID")
	h.logger.Infow("task_delete_request", "id", id, "project_id", projectID)
	if err := h.service.DeleteTask(c.Context(), projectID, id); err != nil {
		return respondError(c, h.logger, "task_delete_failed", err, "id", id, "project_id", projectID)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CompactBoard renumbers the requested columns, or all of them when the
// body is empty.
func (h *TaskHandler) CompactBoard(c *fiber.Ctx) error {
	projectID := c.Params("projectID")
	var req dto.CompactBoardRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c, h.logger, "board_compact_body_parse_failed", err)
		}
	}
	if errors := req.Validate(); len(errors) > 0 {
		return badRequest(c, h.logger, "board_compact_validation_failed", errors)
	}

	h.logger.Infow("board_compact_request", "project_id", projectID, "columns", req.Columns)
	changed, err := h.service.CompactBoard(c.Context(), projectID, req.GetColumns()...)
	if err != nil {
		return respondError(c, h.logger, "board_compact_failed", err, "project_id", projectID)
	}
	return c.JSON(dto.CompactBoardResponse{Changed: changed})
}
