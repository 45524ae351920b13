package dto

import (
	"strings"
	"time"

	"github.com/taskboard/backend/internal/domain"
)

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *CreateProjectRequest) Validate() []string {
	var errors []string
	if strings.TrimSpace(r.Name) == "" {
		errors = append(errors, "name is required")
	} else if len(r.Name) > 255 {
		errors = append(errors, "name must be at most 255 characters")
	}
	return errors
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r *UpdateProjectRequest) Validate() []string {
	var errors []string
	if r.Name == nil && r.Description == nil {
		errors = append(errors, "at least one of name or description is required")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errors = append(errors, "name must not be blank")
	}
	return errors
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ProjectToResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ProjectsToResponse(projects []domain.Project) []ProjectResponse {
	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = ProjectToResponse(&projects[i])
	}
	return responses
}
