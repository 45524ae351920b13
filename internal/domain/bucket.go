package domain

import (
	"fmt"
	"sort"
)

// BucketKey identifies the set of tasks ranked together on a board.
type BucketKey struct {
	ProjectID string `json:"project_id"`
	Column    Column `json:"column"`
}

func (k BucketKey) String() string {
	return fmt.Sprintf("%s/%s", k.ProjectID, k.Column)
}

// PositionChange is a single row rewrite produced by a bucket operation.
type PositionChange struct {
	TaskID string
	From   int
	To     int
}

// Bucket is the ordering aggregate for one (project, column) pair.
// Tasks are kept sorted by position. Positions are dense and zero based
// when the bucket is healthy: N tasks hold exactly 0..N-1.
type Bucket struct {
	Key   BucketKey
	Tasks []Task
}

// NewBucket builds a bucket from rows in any order. Ties on position are
// broken by creation time and then by id so the ordering is deterministic.
func NewBucket(key BucketKey, tasks []Task) *Bucket {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return &Bucket{Key: key, Tasks: sorted}
}

func (b *Bucket) Len() int { return len(b.Tasks) }

func (b *Bucket) IndexOf(taskID string) int {
	for i := range b.Tasks {
		if b.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

func (b *Bucket) Positions() []int {
	out := make([]int, len(b.Tasks))
	for i := range b.Tasks {
		out[i] = b.Tasks[i].Position
	}
	return out
}

// IsDense reports whether positions are exactly 0..N-1.
func (b *Bucket) IsDense() bool {
	for i := range b.Tasks {
		if b.Tasks[i].Position != i {
			return false
		}
	}
	return true
}

// NextPosition is the position a task appended to the bucket receives.
func (b *Bucket) NextPosition() int {
	if len(b.Tasks) == 0 {
		return 0
	}
	return b.Tasks[len(b.Tasks)-1].Position + 1
}

// Compact renumbers the bucket to 0..N-1 keeping the current order.
func (b *Bucket) Compact() []PositionChange {
	return b.renumber("")
}

// Remove drops a task and closes the gap it leaves behind.
func (b *Bucket) Remove(taskID string) (Task, []PositionChange, bool) {
	idx := b.IndexOf(taskID)
	if idx < 0 {
		return Task{}, nil, false
	}
	removed := b.Tasks[idx]
	b.Tasks = append(b.Tasks[:idx], b.Tasks[idx+1:]...)
	return removed, b.renumber(""), true
}

// insert places the task at index pos, shifting the tail one slot down.
func (b *Bucket) insert(t Task, pos int) {
	b.Tasks = append(b.Tasks, Task{})
	copy(b.Tasks[pos+1:], b.Tasks[pos:])
	b.Tasks[pos] = t
}

// renumber assigns index-based positions and returns the rows that changed,
// leaving out skipID.
func (b *Bucket) renumber(skipID string) []PositionChange {
	var changes []PositionChange
	for i := range b.Tasks {
		t := &b.Tasks[i]
		if t.Position == i {
			continue
		}
		if t.ID != skipID {
			changes = append(changes, PositionChange{TaskID: t.ID, From: t.Position, To: i})
		}
		t.Position = i
	}
	return changes
}

// MovePlan describes the writes a move needs. Shifts never include the
// moved task itself; Task carries its final column, status and position.
type MovePlan struct {
	Task         Task
	From         BucketKey
	FromPosition int
	Changed      bool
	Shifts       []PositionChange
}

// ClampPosition bounds pos to [0, max].
func ClampPosition(pos, max int) int {
	if max < 0 {
		return 0
	}
	if pos < 0 {
		return 0
	}
	if pos > max {
		return max
	}
	return pos
}

// PlanMove relocates taskID from src to dst at destPosition. A nil dst or
// one sharing src's key is a move inside the same column. destPosition is
// clamped to the valid range of the destination after the move. Both
// buckets are updated in place to reflect the result.
func PlanMove(src, dst *Bucket, taskID string, destPosition int) (MovePlan, error) {
	idx := src.IndexOf(taskID)
	if idx < 0 {
		return MovePlan{}, fmt.Errorf("task %s not in bucket %s", taskID, src.Key)
	}
	task := src.Tasks[idx]
	plan := MovePlan{From: src.Key, FromPosition: task.Position}

	if dst == nil || dst.Key == src.Key {
		dest := ClampPosition(destPosition, src.Len()-1)
		if dest == task.Position {
			plan.Task = task
			return plan, nil
		}

		src.Tasks = append(src.Tasks[:idx], src.Tasks[idx+1:]...)
		src.insert(task, dest)
		plan.Shifts = src.renumber(task.ID)
		plan.Task = src.Tasks[dest]
		plan.Changed = true
		return plan, nil
	}

	if dst.Key.ProjectID != src.Key.ProjectID {
		return MovePlan{}, fmt.Errorf("buckets %s and %s belong to different projects", src.Key, dst.Key)
	}

	dest := ClampPosition(destPosition, dst.Len())

	src.Tasks = append(src.Tasks[:idx], src.Tasks[idx+1:]...)
	plan.Shifts = src.renumber("")

	task.Place(dst.Key.Column, dest)
	dst.insert(task, dest)
	plan.Shifts = append(plan.Shifts, dst.renumber(task.ID)...)
	plan.Task = dst.Tasks[dest]
	plan.Changed = true
	return plan, nil
}
