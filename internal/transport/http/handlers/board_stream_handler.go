package handlers

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

const boardStreamPingInterval = 30 * time.Second

// BoardStreamHandler pushes board events of one project to a websocket.
type BoardStreamHandler struct {
	projects   ports.ProjectService
	subscriber ports.EventSubscriber
	logger     *logger.Logger
}

func NewBoardStreamHandler(projects ports.ProjectService, subscriber ports.EventSubscriber, logger *logger.Logger) *BoardStreamHandler {
	return &BoardStreamHandler{projects: projects, subscriber: subscriber, logger: logger}
}

func (h *BoardStreamHandler) Handle(c *websocket.Conn) {
	projectID := c.Params("projectID")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := h.projects.GetProjectByID(ctx, projectID); err != nil {
		msg := "internal error"
		if services.IsNotFound(err) {
			msg = err.Error()
		}
		h.logger.Warnw("board_stream_project_lookup_failed", "project_id", projectID, "error", err)
		c.WriteJSON(dto.ErrorResponse{Error: msg})
		c.Close()
		return
	}

	events, unsubscribe, err := h.subscriber.Subscribe(ctx, projectID)
	if err != nil {
		h.logger.Errorw("board_stream_subscribe_failed", "project_id", projectID, "error", err)
		c.WriteJSON(dto.ErrorResponse{Error: "internal error"})
		c.Close()
		return
	}
	defer unsubscribe()

	h.logger.Infow("board_stream_open", "project_id", projectID)

	// Reads only detect the client going away. The conn goes back to the
	// pool once Handle returns, so the reader must be gone by then.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		c.Close()
		<-readerDone
	}()

	ticker := time.NewTicker(boardStreamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Infow("board_stream_closed", "project_id", projectID)
			return
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				h.logger.Warnw("board_stream_source_closed", "project_id", projectID)
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				h.logger.Warnw("board_stream_write_failed", "project_id", projectID, "error", err)
				return
			}
		}
	}
}
