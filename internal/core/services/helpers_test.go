package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/db"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BoardEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.BoardEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []domain.BoardEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.BoardEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}

type fixture struct {
	db        *gorm.DB
	log       *logger.Logger
	projects  ports.ProjectService
	tasks     ports.TaskService
	board     ports.BoardService
	taskRepo  ports.TaskRepository
	timeline  ports.TimelineRepository
	publisher *recordingPublisher
}

type fixtureOptions struct {
	disableLocks bool
	wrapTasks    func(ports.TaskRepository) ports.TaskRepository
}

type fixtureOption func(*fixtureOptions)

// withoutLocks leaves serialization to the database transaction alone.
func withoutLocks() fixtureOption {
	return func(o *fixtureOptions) { o.disableLocks = true }
}

// withTaskRepo decorates the task repository the services write through.
func withTaskRepo(wrap func(ports.TaskRepository) ports.TaskRepository) fixtureOption {
	return func(o *fixtureOptions) { o.wrapTasks = wrap }
}

// failingPlacement fails every write of a moved task's own row.
type failingPlacement struct {
	ports.TaskRepository
}

func (failingPlacement) UpdatePlacement(context.Context, *domain.Task) error {
	return errors.New("placement write failed")
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	var o fixtureOptions
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.NewNop()

	database, err := db.NewConnection(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, log)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database))
	t.Cleanup(func() { db.Close(database) })

	txm := db.NewTxManager(database)
	projectRepo := db.NewProjectRepository(database, log)
	var taskRepo ports.TaskRepository = db.NewTaskRepository(database, log)
	if o.wrapTasks != nil {
		taskRepo = o.wrapTasks(taskRepo)
	}
	timelineRepo := db.NewTimelineRepository(database, log)
	pub := &recordingPublisher{}

	ordering := NewOrderingService(OrderingServiceConfig{
		TxManager:   txm,
		ProjectRepo: projectRepo,
		TaskRepo:    taskRepo,
		Logger:      log,
	})

	return &fixture{
		db:  database,
		log: log,
		projects: NewProjectService(ProjectServiceConfig{
			TxManager:    txm,
			ProjectRepo:  projectRepo,
			TaskRepo:     taskRepo,
			TimelineRepo: timelineRepo,
			Logger:       log,
		}),
		tasks: NewTaskService(TaskServiceConfig{
			TxManager:    txm,
			ProjectRepo:  projectRepo,
			TaskRepo:     taskRepo,
			TimelineRepo: timelineRepo,
			Ordering:     ordering,
			Publisher:    pub,
			Logger:       log,
			EnableLocks:  !o.disableLocks,
		}),
		board:     NewBoardService(projectRepo, taskRepo),
		taskRepo:  taskRepo,
		timeline:  timelineRepo,
		publisher: pub,
	}
}

func (f *fixture) project(t *testing.T, name string) *domain.Project {
	t.Helper()
	p, err := f.projects.CreateProject(context.Background(), ports.CreateProjectInput{Name: name})
	require.NoError(t, err)
	return p
}

// seed creates tasks in order so their titles double as the expected ranks.
func (f *fixture) seed(t *testing.T, projectID string, column domain.Column, titles ...string) map[string]*domain.Task {
	t.Helper()
	out := make(map[string]*domain.Task, len(titles))
	for _, title := range titles {
		task, err := f.tasks.CreateTask(context.Background(), ports.CreateTaskInput{
			ProjectID: projectID,
			Title:     title,
			Column:    column,
		})
		require.NoError(t, err)
		out[title] = task
	}
	return out
}

// order returns the titles of a bucket sorted by rank and asserts the
// ranks are exactly 0..n-1.
func (f *fixture) order(t *testing.T, projectID string, column domain.Column) []string {
	t.Helper()
	col := column
	tasks, err := f.tasks.GetTasks(context.Background(), projectID, &col)
	require.NoError(t, err)

	titles := make([]string, 0, len(tasks))
	for i, task := range tasks {
		require.Equal(t, i, task.Position, "bucket %s/%s not dense", projectID, column)
		require.Equal(t, column, task.Status)
		titles = append(titles, task.Title)
	}
	return titles
}

// corrupt writes a raw position, bypassing the ordering engine.
func (f *fixture) corrupt(t *testing.T, taskID string, position int) {
	t.Helper()
	require.NoError(t, f.db.Model(&domain.Task{}).Where("id = ?", taskID).UpdateColumn("position", position).Error)
}
