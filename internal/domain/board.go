package domain

import "time"

// Board is the read model of a project's Kanban board.
type Board struct {
	ProjectID string        `json:"project_id"`
	Columns   []BoardColumn `json:"columns"`
}

type BoardColumn struct {
	Column Column `json:"column"`
	Tasks  []Task `json:"tasks"`
}

// BoardEventType names a change pushed to board subscribers.
type BoardEventType string

const (
	BoardEventTaskCreated     BoardEventType = "task_created"
	BoardEventTaskMoved       BoardEventType = "task_moved"
	BoardEventTaskUpdated     BoardEventType = "task_updated"
	BoardEventTaskDeleted     BoardEventType = "task_deleted"
	BoardEventBucketCompacted BoardEventType = "bucket_compacted"
)

// BoardEvent is published after an ordering change commits.
type BoardEvent struct {
	Type      BoardEventType `json:"type"`
	ProjectID string         `json:"project_id"`
	TaskID    string         `json:"task_id,omitempty"`
	Column    Column         `json:"column,omitempty"`
	Position  int            `json:"position"`
	At        time.Time      `json:"at"`
}

// BucketReport is the result of a density check on one bucket.
type BucketReport struct {
	Key       BucketKey `json:"key"`
	Positions []int     `json:"positions"`
	Dense     bool      `json:"dense"`
}
