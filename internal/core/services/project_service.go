package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const maxProjectNameLength = 255

type ProjectServiceConfig struct {
	TxManager    ports.TxManager
	ProjectRepo  ports.ProjectRepository
	TaskRepo     ports.TaskRepository
	TimelineRepo ports.TimelineRepository
	Logger       *logger.Logger
}

type projectService struct {
	tx       ports.TxManager
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	timeline ports.TimelineRepository
	logger   *logger.Logger
}

func NewProjectService(cfg ProjectServiceConfig) ports.ProjectService {
	return &projectService{
		tx:       cfg.TxManager,
		projects: cfg.ProjectRepo,
		tasks:    cfg.TaskRepo,
		timeline: cfg.TimelineRepo,
		logger:   cfg.Logger,
	}
}

func validateProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrProjectInvalidInput)
	}
	if len(name) > maxProjectNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrProjectInvalidInput, maxProjectNameLength)
	}
	return name, nil
}

func (s *projectService) CreateProject(ctx context.Context, input ports.CreateProjectInput) (*domain.Project, error) {
	name, err := validateProjectName(input.Name)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{Name: name, Description: input.Description}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.projects.Create(ctx, project); err != nil {
			return err
		}
		return s.timeline.Create(ctx, &domain.TimelineEvent{
			ProjectID:    project.ID,
			Type:         domain.EventTypeProjectCreated,
			Message:      fmt.Sprintf("Project %q created", project.Name),
			ResourceType: domain.ResourceTypeProject,
			ResourceID:   project.ID,
		})
	})
	if err != nil {
		s.logger.Errorw("project_create_failed", "name", name, "error", err)
		return nil, err
	}
	return project, nil
}

func (s *projectService) GetProjects(ctx context.Context) ([]domain.Project, error) {
	return s.projects.GetAll(ctx)
}

func (s *projectService) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	return project, nil
}

func (s *projectService) UpdateProject(ctx context.Context, id string, input ports.UpdateProjectInput) (*domain.Project, error) {
	if input.Name != nil {
		name, err := validateProjectName(*input.Name)
		if err != nil {
			return nil, err
		}
		input.Name = &name
	}

	var project *domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.projects.LockByID(ctx, id)
		if err != nil {
			return notFound(err, ErrProjectNotFound)
		}
		if input.Name != nil {
			current.Name = *input.Name
		}
		if input.Description != nil {
			current.Description = *input.Description
		}
		if err := s.projects.Update(ctx, current); err != nil {
			return err
		}
		project = current
		return s.timeline.Create(ctx, &domain.TimelineEvent{
			ProjectID:    id,
			Type:         domain.EventTypeProjectUpdated,
			Message:      fmt.Sprintf("Project %q updated", current.Name),
			ResourceType: domain.ResourceTypeProject,
			ResourceID:   id,
		})
	})
	if err != nil {
		s.logger.Errorw("project_update_failed", "id", id, "error", err)
		return nil, err
	}
	return project, nil
}

// DeleteProject soft-deletes the project and every task on its board.
func (s *projectService) DeleteProject(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.projects.LockByID(ctx, id); err != nil {
			return notFound(err, ErrProjectNotFound)
		}
		if err := s.tasks.DeleteByProject(ctx, id); err != nil {
			return fmt.Errorf("delete project tasks: %w", err)
		}
		if err := s.projects.Delete(ctx, id); err != nil {
			return notFound(err, ErrProjectNotFound)
		}
		return nil
	})
	if err != nil {
		s.logger.Errorw("project_delete_failed", "id", id, "error", err)
		return err
	}
	s.logger.Infow("project_delete_ok", "id", id)
	return nil
}
