package services

import (
	"context"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
)

type boardService struct {
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
}

func NewBoardService(projects ports.ProjectRepository, tasks ports.TaskRepository) ports.BoardService {
	return &boardService{projects: projects, tasks: tasks}
}

// GetBoard groups live tasks by column in display order. Every column is
// present, empty ones included.
func (s *boardService) GetBoard(ctx context.Context, projectID string) (*domain.Board, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}

	tasks, err := s.tasks.List(ctx, projectID, nil)
	if err != nil {
		return nil, err
	}

	byColumn := make(map[domain.Column][]domain.Task, len(domain.Columns))
	for _, t := range tasks {
		byColumn[t.Column] = append(byColumn[t.Column], t)
	}

	board := &domain.Board{
		ProjectID: projectID,
		Columns:   make([]domain.BoardColumn, 0, len(domain.Columns)),
	}
	for _, c := range domain.Columns {
		col := byColumn[c]
		if col == nil {
			col = []domain.Task{}
		}
		board.Columns = append(board.Columns, domain.BoardColumn{Column: c, Tasks: col})
	}
	return board, nil
}
