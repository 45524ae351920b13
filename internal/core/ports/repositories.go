package ports

import (
	"context"

	"github.com/taskboard/backend/internal/domain"
)

// TxManager runs fn inside one database transaction. Repositories called
// with the ctx handed to fn join that transaction. Nested calls reuse the
// outer transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// LockByID reads the project row and holds a row lock on it until the
	// surrounding transaction ends.
	LockByID(ctx context.Context, id string) (*domain.Project, error)
	GetAll(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, projectID, id string) (*domain.Task, error)
	List(ctx context.Context, projectID string, column *domain.Column) ([]domain.Task, error)
	GetBucket(ctx context.Context, key domain.BucketKey) (*domain.Bucket, error)
	// MaxPosition returns -1 for an empty bucket.
	MaxPosition(ctx context.Context, key domain.BucketKey) (int, error)
	ListBucketKeys(ctx context.Context) ([]domain.BucketKey, error)
	UpdatePositions(ctx context.Context, changes []domain.PositionChange) error
	UpdatePlacement(ctx context.Context, task *domain.Task) error
	UpdateDetails(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) error
}

type TimelineRepository interface {
	Create(ctx context.Context, event *domain.TimelineEvent) error
	GetByProject(ctx context.Context, projectID string, limit int) ([]domain.TimelineEvent, error)
	GetByResource(ctx context.Context, projectID, resourceType, resourceID string) ([]domain.TimelineEvent, error)
}
