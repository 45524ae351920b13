package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type projectRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepository(db *gorm.DB, log *logger.Logger) ports.ProjectRepository {
	return &projectRepository{db: db, log: log}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	if err := conn(ctx, r.db).Create(project).Error; err != nil {
		r.log.Errorw("project_repo_create_failed", "name", project.Name, "error", err)
		return err
	}
	r.log.Infow("project_repo_create_ok", "id", project.ID, "name", project.Name)
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var project domain.Project
	if err := conn(ctx, r.db).Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorw("project_repo_get_failed", "id", id, "error", err)
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) LockByID(ctx context.Context, id string) (*domain.Project, error) {
	var project domain.Project
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorw("project_repo_lock_failed", "id", id, "error", err)
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) GetAll(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := conn(ctx, r.db).Order("created_at asc").Find(&projects).Error; err != nil {
		r.log.Errorw("project_repo_list_failed", "error", err)
		return nil, err
	}
	r.log.Infow("project_repo_list_ok", "count", len(projects))
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	if err := conn(ctx, r.db).Save(project).Error; err != nil {
		r.log.Errorw("project_repo_update_failed", "id", project.ID, "error", err)
		return err
	}
	r.log.Infow("project_repo_update_ok", "id", project.ID)
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Project{})
	if res.Error != nil {
		r.log.Errorw("project_repo_delete_failed", "id", id, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	r.log.Infow("project_repo_delete_ok", "id", id)
	return nil
}
