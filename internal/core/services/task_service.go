package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const maxTitleLength = 255

type TaskServiceConfig struct {
	TxManager    ports.TxManager
	ProjectRepo  ports.ProjectRepository
	TaskRepo     ports.TaskRepository
	TimelineRepo ports.TimelineRepository
	Ordering     ports.OrderingService
	Publisher    ports.EventPublisher
	Logger       *logger.Logger
	EnableLocks  bool
}

type taskService struct {
	tx          ports.TxManager
	projects    ports.ProjectRepository
	tasks       ports.TaskRepository
	timeline    ports.TimelineRepository
	ordering    ports.OrderingService
	publisher   ports.EventPublisher
	logger      *logger.Logger
	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	enableLocks bool
}

func NewTaskService(cfg TaskServiceConfig) ports.TaskService {
	return &taskService{
		tx:          cfg.TxManager,
		projects:    cfg.ProjectRepo,
		tasks:       cfg.TaskRepo,
		timeline:    cfg.TimelineRepo,
		ordering:    cfg.Ordering,
		publisher:   cfg.Publisher,
		logger:      cfg.Logger,
		locks:       make(map[string]*sync.Mutex),
		enableLocks: cfg.EnableLocks,
	}
}

// lockKeys serializes callers in this process before they open a
// transaction. It must never be taken while a transaction is open.
func (s *taskService) lockKeys(keys ...string) func() {
	if !s.enableLocks {
		return func() {}
	}
	if len(keys) == 0 {
		return func() {}
	}
	sort.Strings(keys)
	s.mu.Lock()
	acquired := make([]*sync.Mutex, 0, len(keys))
	for _, k := range keys {
		m := s.locks[k]
		if m == nil {
			m = &sync.Mutex{}
			s.locks[k] = m
		}
		acquired = append(acquired, m)
	}
	s.mu.Unlock()
	for _, m := range acquired {
		m.Lock()
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func projectKey(projectID string) string {
	return "project:" + projectID
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrTaskInvalidInput)
	}
	if len(title) > maxTitleLength {
		return "", fmt.Errorf("%w: title exceeds %d characters", ErrTaskInvalidInput, maxTitleLength)
	}
	return title, nil
}

func (s *taskService) CreateTask(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	column := input.Column
	if column == "" {
		column = domain.ColumnTodo
	}
	if !column.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, column)
	}

	task := &domain.Task{
		ProjectID:   input.ProjectID,
		Column:      column,
		Status:      column,
		Title:       title,
		Description: input.Description,
		Assignee:    strings.TrimSpace(input.Assignee),
		DueDate:     input.DueDate,
	}

	unlock := s.lockKeys(projectKey(input.ProjectID))
	defer unlock()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ordering.Append(ctx, task); err != nil {
			return err
		}
		return s.timeline.Create(ctx, &domain.TimelineEvent{
			ProjectID:    task.ProjectID,
			Type:         domain.EventTypeTaskCreated,
			Message:      fmt.Sprintf("Task %q created in %s", task.Title, task.Column),
			Meta:         domain.JSONB{"column": task.Column, "position": task.Position},
			ResourceType: domain.ResourceTypeTask,
			ResourceID:   task.ID,
		})
	})
	if err != nil {
		s.logger.Errorw("task_create_failed", "project_id", input.ProjectID, "error", err)
		return nil, err
	}

	s.logger.Infow("task_create_ok", "id", task.ID, "project_id", task.ProjectID, "column", task.Column, "position", task.Position)
	s.publish(ctx, domain.BoardEventTaskCreated, task)
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, projectID, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, projectID, id)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	return task, nil
}

func (s *taskService) GetTasks(ctx context.Context, projectID string, column *domain.Column) ([]domain.Task, error) {
	if column != nil && !column.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, *column)
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	return s.tasks.List(ctx, projectID, column)
}

func (s *taskService) UpdateTask(ctx context.Context, projectID, id string, input ports.UpdateTaskInput) (*domain.Task, error) {
	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		input.Title = &title
	}
	if input.Column != nil && !input.Column.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, *input.Column)
	}

	unlock := s.lockKeys(projectKey(projectID))
	defer unlock()

	var (
		task    *domain.Task
		moved   *ports.MoveResult
		changed bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.tasks.GetByID(ctx, projectID, id)
		if err != nil {
			return notFound(err, ErrTaskNotFound)
		}

		changed = applyDetails(current, input)
		if changed {
			if err := s.tasks.UpdateDetails(ctx, current); err != nil {
				return fmt.Errorf("update task: %w", err)
			}
		}
		task = current

		// A column edit is a move to the tail of the destination bucket.
		if input.Column != nil && *input.Column != current.Column {
			res, err := s.ordering.Move(ctx, ports.MoveInput{
				ProjectID: projectID,
				TaskID:    id,
				Column:    *input.Column,
				Position:  math.MaxInt32,
			})
			if err != nil {
				return err
			}
			moved = res
			task = res.Task
			changed = changed || res.Changed
		}
		if !changed {
			return nil
		}

		meta := domain.JSONB{"column": task.Column, "position": task.Position}
		if moved != nil {
			meta["from_column"] = moved.From.Column
			meta["from_position"] = moved.FromPosition
		}
		return s.timeline.Create(ctx, &domain.TimelineEvent{
			ProjectID:    projectID,
			Type:         domain.EventTypeTaskUpdated,
			Message:      fmt.Sprintf("Task %q updated", task.Title),
			Meta:         meta,
			ResourceType: domain.ResourceTypeTask,
			ResourceID:   task.ID,
		})
	})
	if err != nil {
		s.logger.Errorw("task_update_failed", "id", id, "project_id", projectID, "error", err)
		return nil, err
	}

	s.logger.Infow("task_update_ok", "id", task.ID, "column", task.Column, "position", task.Position, "changed", changed)
	if !changed {
		return task, nil
	}
	if moved != nil && moved.Changed {
		s.publish(ctx, domain.BoardEventTaskMoved, task)
	} else {
		s.publish(ctx, domain.BoardEventTaskUpdated, task)
	}
	return task, nil
}

func applyDetails(task *domain.Task, input ports.UpdateTaskInput) bool {
	changed := false
	if input.Title != nil && *input.Title != task.Title {
		task.Title = *input.Title
		changed = true
	}
	if input.Description != nil && *input.Description != task.Description {
		task.Description = *input.Description
		changed = true
	}
	if input.Assignee != nil && strings.TrimSpace(*input.Assignee) != task.Assignee {
		task.Assignee = strings.TrimSpace(*input.Assignee)
		changed = true
	}
	if input.DueDate != nil && (task.DueDate == nil || !task.DueDate.Equal(*input.DueDate)) {
		due := *input.DueDate
		task.DueDate = &due
		changed = true
	}
	return changed
}

func (s *taskService) MoveTask(ctx context.Context, input ports.MoveInput) (*ports.MoveResult, error) {
	if input.Position < 0 {
		return nil, ErrInvalidPosition
	}
	if !input.Column.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumn, input.Column)
	}

	unlock := s.lockKeys(projectKey(input.ProjectID))
	defer unlock()

	var result *ports.MoveResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		res, err := s.ordering.Move(ctx, input)
		if err != nil {
			return err
		}
		result = res
		if !res.Changed {
			return nil
		}
		return s.timeline.Create(ctx, &domain.TimelineEvent{
			ProjectID: input.ProjectID,
			Type:      domain.EventTypeTaskMoved,
			Message:   fmt.Sprintf("Task %q moved to %s #%d", res.Task.Title, res.Task.Column, res.Task.Position),
			Meta: domain.JSONB{
				"from_column":   res.From.Column,
				"from_position": res.FromPosition,
				"to_column":     res.Task.Column,
				"to_position":   res.Task.Position,
				"shifted":       res.Shifted,
			},
			ResourceType: domain.ResourceTypeTask,
			ResourceID:   res.Task.ID,
		})
	})
	if err != nil {
		if IsNotFound(err) || IsInvalidArgument(err) {
			s.logger.Warnw("task_move_rejected", "task_id", input.TaskID, "project_id", input.ProjectID, "error", err)
		} else {
			s.logger.Errorw("task_move_failed", "task_id", input.TaskID, "project_id", input.ProjectID, "error", err)
		}
		return nil, err
	}

	if result.Changed {
		s.publish(ctx, domain.BoardEventTaskMoved, result.Task)
	}
	return result, nil
}

func (s *taskService) DeleteTask(ctx context.Context, projectID, id string) error {
	unlock := s.lockKeys(projectKey(projectID))
	defer unlock()

	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.tasks.GetByID(ctx, projectID, id)
		if err != nil {
			return notFound(err, ErrTaskNotFound)
		}
		if err := s.ordering.Remove(ctx, current); err != nil {
			return err
		}
		task = current
		return s.timeline.Create(ctx, &domain.TimelineEvent{
			ProjectID:    projectID,
			Type:         domain.EventTypeTaskDeleted,
			Message:      fmt.Sprintf("Task %q deleted from %s", current.Title, current.Column),
			Meta:         domain.JSONB{"column": current.Column, "position": current.Position},
			ResourceType: domain.ResourceTypeTask,
			ResourceID:   current.ID,
		})
	})
	if err != nil {
		s.logger.Errorw("task_delete_failed", "id", id, "project_id", projectID, "error", err)
		return err
	}

	s.logger.Infow("task_delete_ok", "id", id, "project_id", projectID)
	s.publish(ctx, domain.BoardEventTaskDeleted, task)
	return nil
}

// CompactBoard renumbers the given columns of a project, or all of them
// when none are named. It returns the number of rewritten rows.
func (s *taskService) CompactBoard(ctx context.Context, projectID string, columns ...domain.Column) (int, error) {
	if len(columns) == 0 {
		columns = domain.Columns
	}
	for _, c := range columns {
		if !c.Valid() {
			return 0, fmt.Errorf("%w: %q", ErrInvalidColumn, c)
		}
	}

	unlock := s.lockKeys(projectKey(projectID))
	defer unlock()

	var compacted []domain.Column
	total := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		compacted = compacted[:0]
		total = 0
		for _, c := range columns {
			key := domain.BucketKey{ProjectID: projectID, Column: c}
			n, err := s.ordering.Compact(ctx, key)
			if err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			total += n
			compacted = append(compacted, c)
			if err := s.timeline.Create(ctx, &domain.TimelineEvent{
				ProjectID:    projectID,
				Type:         domain.EventTypeBucketCompacted,
				Message:      fmt.Sprintf("Column %s renumbered, %d tasks shifted", c, n),
				Meta:         domain.JSONB{"column": c, "changed": n},
				ResourceType: domain.ResourceTypeBucket,
				ResourceID:   key.String(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Errorw("board_compact_failed", "project_id", projectID, "error", err)
		return 0, err
	}

	for _, c := range compacted {
		s.publishEvent(ctx, domain.BoardEvent{
			Type:      domain.BoardEventBucketCompacted,
			ProjectID: projectID,
			Column:    c,
			At:        time.Now().UTC(),
		})
	}
	return total, nil
}

func (s *taskService) publish(ctx context.Context, typ domain.BoardEventType, task *domain.Task) {
	s.publishEvent(ctx, domain.BoardEvent{
		Type:      typ,
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Column:    task.Column,
		Position:  task.Position,
		At:        time.Now().UTC(),
	})
}

// publishEvent runs after commit. Failures are logged only.
func (s *taskService) publishEvent(ctx context.Context, event domain.BoardEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warnw("board_event_publish_failed", "type", event.Type, "project_id", event.ProjectID, "error", err)
	}
}
