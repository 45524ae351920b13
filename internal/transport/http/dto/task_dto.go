package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskboard/backend/internal/domain"
)

const maxTitleLength = 255

func columnError(field, value string) string {
	names := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		names[i] = string(c)
	}
	return fmt.Sprintf("%s %q must be one of: %s", field, value, strings.Join(names, ", "))
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Column      string     `json:"column,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (r *CreateTaskRequest) Validate() []string {
	var errors []string
	if strings.TrimSpace(r.Title) == "" {
		errors = append(errors, "title is required")
	} else if len(r.Title) > maxTitleLength {
		errors = append(errors, "title must be at most 255 characters")
	}
	if r.Column != "" && !domain.Column(r.Column).Valid() {
		errors = append(errors, columnError("column", r.Column))
	}
	return errors
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Column      *string    `json:"column,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (r *UpdateTaskRequest) Validate() []string {
	var errors []string
	if r.Title == nil && r.Description == nil && r.Column == nil && r.Assignee == nil && r.DueDate == nil {
		errors = append(errors, "no fields to update")
	}
	if r.Title != nil {
		if strings.TrimSpace(*r.Title) == "" {
			errors = append(errors, "title must not be blank")
		} else if len(*r.Title) > maxTitleLength {
			errors = append(errors, "title must be at most 255 characters")
		}
	}
	if r.Column != nil && !domain.Column(*r.Column).Valid() {
		errors = append(errors, columnError("column", *r.Column))
	}
	return errors
}

func (r *UpdateTaskRequest) GetColumn() *domain.Column {
	if r.Column == nil {
		return nil
	}
	c := domain.Column(*r.Column)
	return &c
}

// MoveTaskRequest targets a zero-based rank in the destination column.
type MoveTaskRequest struct {
	Column   string `json:"column"`
	Position *int   `json:"position"`
}

func (r *MoveTaskRequest) Validate() []string {
	var errors []string
	if r.Column == "" {
		errors = append(errors, "column is required")
	} else if !domain.Column(r.Column).Valid() {
		errors = append(errors, columnError("column", r.Column))
	}
	if r.Position == nil {
		errors = append(errors, "position is required")
	} else if *r.Position < 0 {
		errors = append(errors, "position must not be negative")
	}
	return errors
}

type CompactBoardRequest struct {
	Columns []string `json:"columns,omitempty"`
}

func (r *CompactBoardRequest) Validate() []string {
	var errors []string
	for _, c := range r.Columns {
		if !domain.Column(c).Valid() {
			errors = append(errors, columnError("columns", c))
			break
		}
	}
	return errors
}

func (r *CompactBoardRequest) GetColumns() []domain.Column {
	out := make([]domain.Column, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = domain.Column(c)
	}
	return out
}

type TaskResponse struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"project_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Column      domain.Column `json:"column"`
	Status      domain.Column `json:"status"`
	Position    int           `json:"position"`
	Assignee    string        `json:"assignee,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func TaskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Column:      t.Column,
		Status:      t.Status,
		Position:    t.Position,
		Assignee:    t.Assignee,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func TasksToResponse(tasks []domain.Task) []TaskResponse {
	responses := make([]TaskResponse, len(tasks))
	for i := range tasks {
		responses[i] = TaskToResponse(&tasks[i])
	}
	return responses
}

type MoveTaskResponse struct {
	Changed      bool          `json:"changed"`
	FromColumn   domain.Column `json:"from_column"`
	FromPosition int           `json:"from_position"`
	Shifted      int           `json:"shifted"`
	Task         TaskResponse  `json:"task"`
}

type CompactBoardResponse struct {
	Changed int `json:"changed"`
}

type BoardColumnResponse struct {
	Column domain.Column  `json:"column"`
	Tasks  []TaskResponse `json:"tasks"`
}

type BoardResponse struct {
	ProjectID string                `json:"project_id"`
	Columns   []BoardColumnResponse `json:"columns"`
}

func BoardToResponse(b *domain.Board) BoardResponse {
	resp := BoardResponse{
		ProjectID: b.ProjectID,
		Columns:   make([]BoardColumnResponse, len(b.Columns)),
	}
	for i, col := range b.Columns {
		resp.Columns[i] = BoardColumnResponse{Column: col.Column, Tasks: TasksToResponse(col.Tasks)}
	}
	return resp
}
