package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/db"
	"github.com/taskboard/backend/internal/infrastructure/events"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
	httpmw "github.com/taskboard/backend/internal/transport/http/middleware"
)

func newTestApp(t *testing.T, apiKey string) *fiber.App {
	t.Helper()
	return buildTestApp(t, apiKey, nil)
}

// buildTestApp optionally decorates the board event subscriber.
func buildTestApp(t *testing.T, apiKey string, wrap func(ports.EventSubscriber) ports.EventSubscriber) *fiber.App {
	t.Helper()
	log := logger.NewNop()
	database, err := db.NewConnection(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, log)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database))
	t.Cleanup(func() { db.Close(database) })

	cfg := &config.Config{
		Features: config.FeaturesConfig{EnableLocks: true},
		Auth:     config.AuthConfig{AdminAPIKey: apiKey},
	}
	bus := events.NewMemoryBus()
	var subscriber ports.EventSubscriber = bus
	if wrap != nil {
		subscriber = wrap(bus)
	}

	app := fiber.New(fiber.Config{ErrorHandler: httpmw.ErrorHandler(log)})
	app.Use(httpmw.RequestID(""))
	SetupRoutes(app, RouterConfig{
		DB:         database,
		Logger:     log,
		Config:     cfg,
		Publisher:  bus,
		Subscriber: subscriber,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createProject(t *testing.T, app *fiber.App, name string) dto.ProjectResponse {
	t.Helper()
	var p dto.ProjectResponse
	status := doJSON(t, app, fiber.MethodPost, "/api/v1/projects", map[string]string{"name": name}, &p)
	require.Equal(t, fiber.StatusCreated, status)
	return p
}

func createTask(t *testing.T, app *fiber.App, projectID, title, column string) dto.TaskResponse {
	t.Helper()
	var task dto.TaskResponse
	status := doJSON(t, app, fiber.MethodPost, "/api/v1/projects/"+projectID+"/tasks",
		map[string]string{"title": title, "column": column}, &task)
	require.Equal(t, fiber.StatusCreated, status)
	return task
}

func TestMoveEndpoint(t *testing.T) {
	app := newTestApp(t, "")
	p := createProject(t, app, "alpha")
	a := createTask(t, app, p.ID, "A", "todo")
	createTask(t, app, p.ID, "B", "todo")
	createTask(t, app, p.ID, "C", "todo")
	other := createProject(t, app, "beta")

	tests := map[string]struct {
		path      string
		body      interface{}
		expStatus int
	}{
		"moves across columns": {
			path:      "/api/v1/projects/" + p.ID + "/tasks/" + a.ID + "/move",
			body:      map[string]interface{}{"column": "done", "position": 0},
			expStatus: fiber.StatusOK,
		},
		"unknown task": {
			path:      "/api/v1/projects/" + p.ID + "/tasks/nope/move",
			body:      map[string]interface{}{"column": "done", "position": 0},
			expStatus: fiber.StatusNotFound,
		},
		"wrong project": {
			path:      "/api/v1/projects/" + other.ID + "/tasks/" + a.ID + "/move",
			body:      map[string]interface{}{"column": "todo", "position": 0},
			expStatus: fiber.StatusNotFound,
		},
		"unknown column": {
			path:      "/api/v1/projects/" + p.ID + "/tasks/" + a.ID + "/move",
			body:      map[string]interface{}{"column": "later", "position": 0},
			expStatus: fiber.StatusBadRequest,
		},
		"negative position": {
			path:      "/api/v1/projects/" + p.ID + "/tasks/" + a.ID + "/move",
			body:      map[string]interface{}{"column": "todo", "position": -3},
			expStatus: fiber.StatusBadRequest,
		},
		"missing position": {
			path:      "/api/v1/projects/" + p.ID + "/tasks/" + a.ID + "/move",
			body:      map[string]interface{}{"column": "todo"},
			expStatus: fiber.StatusBadRequest,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			status := doJSON(t, app, fiber.MethodPost, test.path, test.body, nil)
			assert.Equal(t, test.expStatus, status)
		})
	}
}

func TestMoveEndpointResponse(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(t, "")
	p := createProject(t, app, "alpha")
	createTask(t, app, p.ID, "A", "todo")
	b := createTask(t, app, p.ID, "B", "todo")
	createTask(t, app, p.ID, "X", "review")

	var res dto.MoveTaskResponse
	status := doJSON(t, app, fiber.MethodPost, "/api/v1/projects/"+p.ID+"/tasks/"+b.ID+"/move",
		map[string]interface{}{"column": "review", "position": 0}, &res)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(res.Changed)
	assert.Equal("review", string(res.Task.Column))
	assert.Equal("review", string(res.Task.Status))
	assert.Equal(0, res.Task.Position)
	assert.Equal("todo", string(res.FromColumn))
	assert.Equal(1, res.FromPosition)

	// Same slot again is a no-op.
	status = doJSON(t, app, fiber.MethodPost, "/api/v1/projects/"+p.ID+"/tasks/"+b.ID+"/move",
		map[string]interface{}{"column": "review", "position": 0}, &res)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(res.Changed)

	var board dto.BoardResponse
	require.Equal(t, fiber.StatusOK, doJSON(t, app, fiber.MethodGet, "/api/v1/projects/"+p.ID+"/board", nil, &board))
	require.Len(t, board.Columns, 4)
	assert.Equal("todo", string(board.Columns[0].Column))
	require.Len(t, board.Columns[2].Tasks, 2)
	assert.Equal("B", board.Columns[2].Tasks[0].Title)
	assert.Equal("X", board.Columns[2].Tasks[1].Title)
	assert.Equal(1, board.Columns[2].Tasks[1].Position)
}

func TestTaskCRUDEndpoints(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(t, "")
	p := createProject(t, app, "alpha")
	base := "/api/v1/projects/" + p.ID + "/tasks"

	var errResp dto.ErrorResponse
	status := doJSON(t, app, fiber.MethodPost, base, map[string]string{"title": ""}, &errResp)
	assert.Equal(fiber.StatusBadRequest, status)
	assert.Equal("validation failed", errResp.Error)
	assert.NotEmpty(errResp.Details)

	status = doJSON(t, app, fiber.MethodPost, "/api/v1/projects/missing/tasks", map[string]string{"title": "x"}, nil)
	assert.Equal(fiber.StatusNotFound, status)

	a := createTask(t, app, p.ID, "A", "")
	b := createTask(t, app, p.ID, "B", "")
	assert.Equal(0, a.Position)
	assert.Equal(1, b.Position)
	assert.Equal("todo", string(a.Status))

	var got dto.TaskResponse
	assert.Equal(fiber.StatusOK, doJSON(t, app, fiber.MethodGet, base+"/"+b.ID, nil, &got))
	assert.Equal("B", got.Title)

	var updated dto.TaskResponse
	status = doJSON(t, app, fiber.MethodPatch, base+"/"+a.ID, map[string]string{"column": "in_progress", "assignee": "kim"}, &updated)
	assert.Equal(fiber.StatusOK, status)
	assert.Equal("in_progress", string(updated.Column))
	assert.Equal("kim", updated.Assignee)
	assert.Equal(0, updated.Position)

	var todo []dto.TaskResponse
	assert.Equal(fiber.StatusOK, doJSON(t, app, fiber.MethodGet, base+"?column=todo", nil, &todo))
	require.Len(t, todo, 1)
	assert.Equal(0, todo[0].Position)

	assert.Equal(fiber.StatusBadRequest, doJSON(t, app, fiber.MethodGet, base+"?column=icebox", nil, nil))
	assert.Equal(fiber.StatusBadRequest, doJSON(t, app, fiber.MethodPatch, base+"/"+a.ID, map[string]string{}, nil))

	assert.Equal(fiber.StatusNoContent, doJSON(t, app, fiber.MethodDelete, base+"/"+b.ID, nil, nil))
	assert.Equal(fiber.StatusNotFound, doJSON(t, app, fiber.MethodGet, base+"/"+b.ID, nil, nil))

	var compact dto.CompactBoardResponse
	assert.Equal(fiber.StatusOK, doJSON(t, app, fiber.MethodPost, "/api/v1/projects/"+p.ID+"/board/compact", nil, &compact))
	assert.Zero(compact.Changed)

	var timeline []map[string]interface{}
	assert.Equal(fiber.StatusOK, doJSON(t, app, fiber.MethodGet, "/api/v1/projects/"+p.ID+"/timeline?resource_id="+a.ID, nil, &timeline))
	assert.Len(timeline, 2)
}

func TestProjectEndpoints(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(t, "")
	p := createProject(t, app, "alpha")

	var list []dto.ProjectResponse
	assert.Equal(fiber.StatusOK, doJSON(t, app, fiber.MethodGet, "/api/v1/projects", nil, &list))
	assert.Len(list, 1)

	var updated dto.ProjectResponse
	assert.Equal(fiber.StatusOK, doJSON(t, app, fiber.MethodPatch, "/api/v1/projects/"+p.ID, map[string]string{"description": "d"}, &updated))
	assert.Equal("d", updated.Description)
	assert.Equal("alpha", updated.Name)

	assert.Equal(fiber.StatusBadRequest, doJSON(t, app, fiber.MethodPost, "/api/v1/projects", map[string]string{"name": " "}, nil))
	assert.Equal(fiber.StatusNoContent, doJSON(t, app, fiber.MethodDelete, "/api/v1/projects/"+p.ID, nil, nil))
	assert.Equal(fiber.StatusNotFound, doJSON(t, app, fiber.MethodGet, "/api/v1/projects/"+p.ID, nil, nil))
	assert.Equal(fiber.StatusNotFound, doJSON(t, app, fiber.MethodGet, "/api/v1/projects/"+p.ID+"/board", nil, nil))
}

func TestAdminAuth(t *testing.T) {
	app := newTestApp(t, "secret")

	tests := map[string]struct {
		header    string
		value     string
		expStatus int
	}{
		"missing token": {
			expStatus: fiber.StatusUnauthorized,
		},
		"wrong token": {
			header:    "X-Admin-Token",
			value:     "nope",
			expStatus: fiber.StatusUnauthorized,
		},
		"admin header": {
			header:    "X-Admin-Token",
			value:     "secret",
			expStatus: fiber.StatusOK,
		},
		"bearer": {
			header:    fiber.HeaderAuthorization,
			value:     "Bearer secret",
			expStatus: fiber.StatusOK,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/api/v1/projects", nil)
			if test.header != "" {
				req.Header.Set(test.header, test.value)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, test.expStatus, resp.StatusCode)
		})
	}
}

func TestHealthAndRequestID(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(t, "secret")

	req := httptest.NewRequest(fiber.MethodGet, "/health", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(fiber.StatusOK, resp.StatusCode)
	assert.Equal("req-1", resp.Header.Get(fiber.HeaderXRequestID))

	req = httptest.NewRequest(fiber.MethodGet, "/ws/projects/x/board", nil)
	req.Header.Set("X-Admin-Token", "secret")
	resp2, err := app.Test(req, -1)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(fiber.StatusUpgradeRequired, resp2.StatusCode)
}

// releaseTrackingSubscriber reports when a stream hands its subscription back.
type releaseTrackingSubscriber struct {
	ports.EventSubscriber
	subscribed chan struct{}
	released   chan struct{}
}

func (s *releaseTrackingSubscriber) Subscribe(ctx context.Context, projectID string) (<-chan domain.BoardEvent, func() error, error) {
	ch, closeFn, err := s.EventSubscriber.Subscribe(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	s.subscribed <- struct{}{}
	return ch, func() error {
		err := closeFn()
		s.released <- struct{}{}
		return err
	}, nil
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestBoardStream(t *testing.T) {
	assert := assert.New(t)
	tracker := &releaseTrackingSubscriber{
		subscribed: make(chan struct{}, 1),
		released:   make(chan struct{}, 1),
	}
	app := buildTestApp(t, "secret", func(inner ports.EventSubscriber) ports.EventSubscriber {
		tracker.EventSubscriber = inner
		return tracker
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/projects", bytes.NewReader([]byte(`{"name":"alpha"}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Admin-Token", "secret")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var p dto.ProjectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	resp.Body.Close()
	require.NotEmpty(t, p.ID)

	conn, _, err := fastws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/projects/"+p.ID+"/board?token=secret", nil)
	require.NoError(t, err)
	waitFor(t, tracker.subscribed, "subscription")

	req = httptest.NewRequest(fiber.MethodPost, "/api/v1/projects/"+p.ID+"/tasks", bytes.NewReader([]byte(`{"title":"A"}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Admin-Token", "secret")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev domain.BoardEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(domain.BoardEventTaskCreated, ev.Type)
	assert.Equal(p.ID, ev.ProjectID)

	// The handler gives the subscription back only after its reader exits.
	require.NoError(t, conn.Close())
	waitFor(t, tracker.released, "stream shutdown")
}
