package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/infrastructure/db"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/handlers"
	httpmw "github.com/taskboard/backend/internal/transport/http/middleware"
	"gorm.io/gorm"
)

type RouterConfig struct {
	DB         *gorm.DB
	Logger     *logger.Logger
	Config     *config.Config
	Publisher  ports.EventPublisher
	Subscriber ports.EventSubscriber
}

// SetupRoutes wires repositories, services and handlers onto app and
// returns the density auditor for the caller to schedule.
func SetupRoutes(app *fiber.App, cfg RouterConfig) ports.AuditService {
	// Initialize repositories
	txManager := db.NewTxManager(cfg.DB)
	projectRepo := db.NewProjectRepository(cfg.DB, cfg.Logger)
	taskRepo := db.NewTaskRepository(cfg.DB, cfg.Logger)
	timelineRepo := db.NewTimelineRepository(cfg.DB, cfg.Logger)

	// Initialize services
	orderingService := services.NewOrderingService(services.OrderingServiceConfig{
		TxManager:   txManager,
		ProjectRepo: projectRepo,
		TaskRepo:    taskRepo,
		Logger:      cfg.Logger,
	})

	projectService := services.NewProjectService(services.ProjectServiceConfig{
		TxManager:    txManager,
		ProjectRepo:  projectRepo,
		TaskRepo:     taskRepo,
		TimelineRepo: timelineRepo,
		Logger:       cfg.Logger,
	})

	taskService := services.NewTaskService(services.TaskServiceConfig{
		TxManager:    txManager,
		ProjectRepo:  projectRepo,
		TaskRepo:     taskRepo,
		TimelineRepo: timelineRepo,
		Ordering:     orderingService,
		Publisher:    cfg.Publisher,
		Logger:       cfg.Logger,
		EnableLocks:  cfg.Config.Features.EnableLocks,
	})

	boardService := services.NewBoardService(projectRepo, taskRepo)

	auditService := services.NewAuditService(services.AuditServiceConfig{
		TaskRepo:    taskRepo,
		TaskService: taskService,
		Logger:      cfg.Logger,
		Repair:      cfg.Config.Audit.Repair,
	})

	// Initialize handlers
	projectHandler := handlers.NewProjectHandler(projectService, cfg.Logger)
	taskHandler := handlers.NewTaskHandler(taskService, cfg.Logger)
	boardHandler := handlers.NewBoardHandler(boardService, cfg.Logger)
	timelineHandler := handlers.NewTimelineHandler(timelineRepo, projectService, cfg.Logger)

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := cfg.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Context())
		}
		if err != nil {
			cfg.Logger.Errorw("health_db_ping_failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Board event stream
	if cfg.Subscriber != nil {
		streamHandler := handlers.NewBoardStreamHandler(projectService, cfg.Subscriber, cfg.Logger)
		app.Use("/ws", httpmw.AdminAuth(cfg.Config), func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws/projects/:projectID/board", websocket.New(streamHandler.Handle))
	}

	// API v1 routes
	api := app.Group("/api/v1", httpmw.AdminAuth(cfg.Config))

	projects := api.Group("/projects")
	projects.Post("/", projectHandler.CreateProject)
	projects.Get("/", projectHandler.GetProjects)
	projects.Get("/:projectID", projectHandler.GetProject)
	projects.Patch("/:projectID", projectHandler.UpdateProject)
	projects.Delete("/:projectID", projectHandler.DeleteProject)

	// Board routes
	projects.Get("/:projectID/board", boardHandler.GetBoard)
	projects.Post("/:projectID/board/compact", taskHandler.CompactBoard)
	projects.Get("/:projectID/timeline", timelineHandler.GetEvents)

	// Task routes
	tasks := projects.Group("/:projectID/tasks")
	tasks.Post("/", taskHandler.CreateTask)
	tasks.Get("/", taskHandler.GetTasks)
	tasks.Get("/:taskID", taskHandler.GetTask)
	tasks.Patch("/:taskID", taskHandler.UpdateTask)
	tasks.Delete("/:taskID", taskHandler.DeleteTask)
	tasks.Post("/:taskID/move", taskHandler.MoveTask)

	return auditService
}
