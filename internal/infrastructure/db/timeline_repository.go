package db

import (
	"context"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type timelineRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTimelineRepository(db *gorm.DB, log *logger.Logger) ports.TimelineRepository {
	return &timelineRepository{
		db:  db,
		log: log,
	}
}

func (r *timelineRepository) Create(ctx context.Context, event *domain.TimelineEvent) error {
	if event.Status == "" {
		event.Status = domain.EventStatusSuccess
	}
	if err := conn(ctx, r.db).Create(event).Error; err != nil {
		r.log.Errorw("timeline_repo_create_failed", "type", event.Type, "project_id", event.ProjectID, "error", err)
		return err
	}
	r.log.Debugw("timeline_repo_create_ok", "id", event.ID, "type", event.Type, "resource_id", event.ResourceID)
	return nil
}

func (r *timelineRepository) GetByProject(ctx context.Context, projectID string, limit int) ([]domain.TimelineEvent, error) {
	var events []domain.TimelineEvent
	err := conn(ctx, r.db).
		Where("project_id = ?", projectID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		r.log.Errorw("timeline_repo_list_failed", "project_id", projectID, "error", err)
		return nil, err
	}
	return events, nil
}

func (r *timelineRepository) GetByResource(ctx context.Context, projectID, resourceType, resourceID string) ([]domain.TimelineEvent, error) {
	var events []domain.TimelineEvent
	err := conn(ctx, r.db).
		Where("project_id = ? AND resource_type = ? AND resource_id = ?", projectID, resourceType, resourceID).
		Order("created_at desc").
		Order("id desc").
		Limit(50).
		Find(&events).Error
	if err != nil {
		r.log.Errorw("timeline_repo_get_by_resource_failed", "resource_type", resourceType, "resource_id", resourceID, "error", err)
		return nil, err
	}
	return events, nil
}
