package ports

import (
	"context"
	"time"

	"github.com/taskboard/backend/internal/domain"
)

// OrderingService keeps positions dense inside every (project, column)
// bucket. Every method runs in a transaction holding the project row lock.
type OrderingService interface {
	Move(ctx context.Context, input MoveInput) (*MoveResult, error)
	Append(ctx context.Context, task *domain.Task) error
	Remove(ctx context.Context, task *domain.Task) error
	Compact(ctx context.Context, key domain.BucketKey) (int, error)
}

type MoveInput struct {
	ProjectID string
	TaskID    string
	Column    domain.Column
	Position  int
}

type MoveResult struct {
	Task         *domain.Task
	Changed      bool
	From         domain.BucketKey
	FromPosition int
	Shifted      int
}

type ProjectService interface {
	CreateProject(ctx context.Context, input CreateProjectInput) (*domain.Project, error)
	GetProjects(ctx context.Context) ([]domain.Project, error)
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
	UpdateProject(ctx context.Context, id string, input UpdateProjectInput) (*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

type CreateProjectInput struct {
	Name        string
	Description string
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
}

type TaskService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, projectID, id string) (*domain.Task, error)
	GetTasks(ctx context.Context, projectID string, column *domain.Column) ([]domain.Task, error)
	UpdateTask(ctx context.Context, projectID, id string, input UpdateTaskInput) (*domain.Task, error)
	MoveTask(ctx context.Context, input MoveInput) (*MoveResult, error)
	DeleteTask(ctx context.Context, projectID, id string) error
	CompactBoard(ctx context.Context, projectID string, columns ...domain.Column) (int, error)
}

type CreateTaskInput struct {
	ProjectID   string
	Title       string
	Description string
	Column      domain.Column
	Assignee    string
	DueDate     *time.Time
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Assignee    *string
	DueDate     *time.Time
	Column      *domain.Column
}

type BoardService interface {
	GetBoard(ctx context.Context, projectID string) (*domain.Board, error)
}

type AuditService interface {
	CheckDensity(ctx context.Context) ([]domain.BucketReport, error)
	RunOnce(ctx context.Context) (*AuditResult, error)
}

type AuditResult struct {
	Checked    int
	Violations []domain.BucketReport
	Repaired   int
}

// EventPublisher fans board changes out to live subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.BoardEvent) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, projectID string) (<-chan domain.BoardEvent, func() error, error)
}
