package services

import (
	"context"
	"fmt"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

type OrderingServiceConfig struct {
	TxManager   ports.TxManager
	ProjectRepo ports.ProjectRepository
	TaskRepo    ports.TaskRepository
	Logger      *logger.Logger
}

// orderingService applies every rank change of a project inside one
// transaction that holds the project row lock, so the position read, the
// sibling shifts and the moved row write commit or roll back together.
type orderingService struct {
	tx       ports.TxManager
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	logger   *logger.Logger
}

func NewOrderingService(cfg OrderingServiceConfig) ports.OrderingService {
	return &orderingService{
		tx:       cfg.TxManager,
		projects: cfg.ProjectRepo,
		tasks:    cfg.TaskRepo,
		logger:   cfg.Logger,
	}
}

func (s *orderingService) lockProject(ctx context.Context, projectID string) error {
	if _, err := s.projects.LockByID(ctx, projectID); err != nil {
		return notFound(err, ErrProjectNotFound)
	}
	return nil
}

func (s *orderingService) Move(ctx context.Context, input ports.MoveInput) (*ports.MoveResult, error) {
	if !input.Column.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, input.Column)
	}

	var result *ports.MoveResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockProject(ctx, input.ProjectID); err != nil {
			return err
		}

		task, err := s.tasks.GetByID(ctx, input.ProjectID, input.TaskID)
		if err != nil {
			return notFound(err, ErrTaskNotFound)
		}

		src, err := s.tasks.GetBucket(ctx, task.BucketKey())
		if err != nil {
			return fmt.Errorf("load source bucket: %w", err)
		}
		var dst *domain.Bucket
		if input.Column != task.Column {
			dst, err = s.tasks.GetBucket(ctx, domain.BucketKey{ProjectID: task.ProjectID, Column: input.Column})
			if err != nil {
				return fmt.Errorf("load destination bucket: %w", err)
			}
		}

		plan, err := domain.PlanMove(src, dst, task.ID, input.Position)
		if err != nil {
			return fmt.Errorf("plan move: %w", err)
		}

		result = &ports.MoveResult{
			Task:         task,
			Changed:      plan.Changed,
			From:         plan.From,
			FromPosition: plan.FromPosition,
		}
		if !plan.Changed {
			return nil
		}

		if err := s.tasks.UpdatePositions(ctx, plan.Shifts); err != nil {
			return fmt.Errorf("shift siblings: %w", err)
		}
		moved := plan.Task
		if err := s.tasks.UpdatePlacement(ctx, &moved); err != nil {
			return fmt.Errorf("place task: %w", err)
		}

		result.Task = &moved
		result.Shifted = len(plan.Shifts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("ordering_move_ok",
		"task_id", input.TaskID,
		"project_id", input.ProjectID,
		"from", result.From.Column,
		"from_position", result.FromPosition,
		"to", result.Task.Column,
		"to_position", result.Task.Position,
		"changed", result.Changed,
		"shifted", result.Shifted,
	)
	return result, nil
}

func (s *orderingService) Append(ctx context.Context, task *domain.Task) error {
	if !task.Column.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, task.Column)
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockProject(ctx, task.ProjectID); err != nil {
			return err
		}

		maxPos, err := s.tasks.MaxPosition(ctx, task.BucketKey())
		if err != nil {
			return fmt.Errorf("read bucket size: %w", err)
		}
		task.Place(task.Column, maxPos+1)

		if err := s.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
}

func (s *orderingService) Remove(ctx context.Context, task *domain.Task) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockProject(ctx, task.ProjectID); err != nil {
			return err
		}

		bucket, err := s.tasks.GetBucket(ctx, task.BucketKey())
		if err != nil {
			return fmt.Errorf("load bucket: %w", err)
		}
		_, changes, ok := bucket.Remove(task.ID)
		if !ok {
			return ErrTaskNotFound
		}

		if err := s.tasks.Delete(ctx, task.ID); err != nil {
			return notFound(err, ErrTaskNotFound)
		}
		if err := s.tasks.UpdatePositions(ctx, changes); err != nil {
			return fmt.Errorf("close gap: %w", err)
		}
		return nil
	})
}

func (s *orderingService) Compact(ctx context.Context, key domain.BucketKey) (int, error) {
	var changed int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockProject(ctx, key.ProjectID); err != nil {
			return err
		}

		bucket, err := s.tasks.GetBucket(ctx, key)
		if err != nil {
			return fmt.Errorf("load bucket: %w", err)
		}
		changes := bucket.Compact()
		if err := s.tasks.UpdatePositions(ctx, changes); err != nil {
			return fmt.Errorf("rewrite positions: %w", err)
		}
		changed = len(changes)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if changed > 0 {
		s.logger.Warnw("ordering_compact_repaired", "bucket", key.String(), "changed", changed)
	}
	return changed, nil
}
