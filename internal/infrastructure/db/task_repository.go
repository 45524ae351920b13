package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type taskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepository(db *gorm.DB, log *logger.Logger) ports.TaskRepository {
	return &taskRepository{db: db, log: log}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := conn(ctx, r.db).Create(task).Error; err != nil {
		r.log.Errorw("task_repo_create_failed", "project_id", task.ProjectID, "column", task.Column, "error", err)
		return err
	}
	r.log.Infow("task_repo_create_ok", "id", task.ID, "column", task.Column, "position", task.Position)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, projectID, id string) (*domain.Task, error) {
	var task domain.Task
	err := conn(ctx, r.db).
		Where("id = ? AND project_id = ?", id, projectID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorw("task_repo_get_failed", "id", id, "project_id", projectID, "error", err)
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, projectID string, column *domain.Column) ([]domain.Task, error) {
	q := conn(ctx, r.db).Where("project_id = ?", projectID)
	if column != nil {
		q = q.Where("board_column = ?", *column)
	}

	var tasks []domain.Task
	if err := q.Order("position asc").Order("created_at asc").Find(&tasks).Error; err != nil {
		r.log.Errorw("task_repo_list_failed", "project_id", projectID, "error", err)
		return nil, err
	}

	rank := make(map[domain.Column]int, len(domain.Columns))
	for i, c := range domain.Columns {
		rank[c] = i
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return rank[tasks[i].Column] < rank[tasks[j].Column]
	})
	return tasks, nil
}

func (r *taskRepository) GetBucket(ctx context.Context, key domain.BucketKey) (*domain.Bucket, error) {
	var tasks []domain.Task
	err := conn(ctx, r.db).
		Where("project_id = ? AND board_column = ?", key.ProjectID, key.Column).
		Order("position asc").
		Find(&tasks).Error
	if err != nil {
		r.log.Errorw("task_repo_get_bucket_failed", "bucket", key.String(), "error", err)
		return nil, err
	}
	return domain.NewBucket(key, tasks), nil
}

func (r *taskRepository) MaxPosition(ctx context.Context, key domain.BucketKey) (int, error) {
	var maxPos int
	err := conn(ctx, r.db).
		Model(&domain.Task{}).
		Select("COALESCE(MAX(position), -1)").
		Where("project_id = ? AND board_column = ?", key.ProjectID, key.Column).
		Scan(&maxPos).Error
	if err != nil {
		r.log.Errorw("task_repo_max_position_failed", "bucket", key.String(), "error", err)
		return 0, err
	}
	return maxPos, nil
}

func (r *taskRepository) ListBucketKeys(ctx context.Context) ([]domain.BucketKey, error) {
	var rows []struct {
		ProjectID   string
		BoardColumn string
	}
	err := conn(ctx, r.db).
		Model(&domain.Task{}).
		Distinct("project_id", "board_column").
		Order("project_id asc").
		Scan(&rows).Error
	if err != nil {
		r.log.Errorw("task_repo_list_buckets_failed", "error", err)
		return nil, err
	}

	keys := make([]domain.BucketKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, domain.BucketKey{ProjectID: row.ProjectID, Column: domain.Column(row.BoardColumn)})
	}
	return keys, nil
}

// UpdatePositions writes only the position column. Each change must hit
// exactly one live row.
func (r *taskRepository) UpdatePositions(ctx context.Context, changes []domain.PositionChange) error {
	db := conn(ctx, r.db)
	for _, c := range changes {
		res := db.Model(&domain.Task{}).Where("id = ?", c.TaskID).UpdateColumn("position", c.To)
		if res.Error != nil {
			r.log.Errorw("task_repo_shift_failed", "id", c.TaskID, "from", c.From, "to", c.To, "error", res.Error)
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("shift task %s: %w", c.TaskID, domain.ErrNotFound)
		}
	}
	if len(changes) > 0 {
		r.log.Debugw("task_repo_shift_ok", "count", len(changes))
	}
	return nil
}

func (r *taskRepository) UpdatePlacement(ctx context.Context, task *domain.Task) error {
	res := conn(ctx, r.db).Model(task).Updates(map[string]interface{}{
		"board_column": task.Column,
		"status":       task.Status,
		"position":     task.Position,
	})
	if res.Error != nil {
		r.log.Errorw("task_repo_place_failed", "id", task.ID, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("place task %s: %w", task.ID, domain.ErrNotFound)
	}
	r.log.Infow("task_repo_place_ok", "id", task.ID, "column", task.Column, "position", task.Position)
	return nil
}

func (r *taskRepository) UpdateDetails(ctx context.Context, task *domain.Task) error {
	err := conn(ctx, r.db).
		Model(task).
		Select("title", "description", "assignee", "due_date").
		Updates(task).Error
	if err != nil {
		r.log.Errorw("task_repo_update_failed", "id", task.ID, "error", err)
		return err
	}
	r.log.Infow("task_repo_update_ok", "id", task.ID)
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Task{})
	if res.Error != nil {
		r.log.Errorw("task_repo_delete_failed", "id", id, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	r.log.Infow("task_repo_delete_ok", "id", id)
	return nil
}

func (r *taskRepository) DeleteByProject(ctx context.Context, projectID string) error {
	res := conn(ctx, r.db).Where("project_id = ?", projectID).Delete(&domain.Task{})
	if res.Error != nil {
		r.log.Errorw("task_repo_delete_by_project_failed", "project_id", projectID, "error", res.Error)
		return res.Error
	}
	r.log.Infow("task_repo_delete_by_project_ok", "project_id", projectID, "count", res.RowsAffected)
	return nil
}
