package domain

// Task timeline event types
const (
	EventTypeTaskCreated     = "TASK_CREATED"
	EventTypeTaskMoved       = "TASK_MOVED"
	EventTypeTaskUpdated     = "TASK_UPDATED"
	EventTypeTaskDeleted     = "TASK_DELETED"
	EventTypeBucketCompacted = "BUCKET_COMPACTED"
	EventTypeProjectCreated  = "PROJECT_CREATED"
	EventTypeProjectUpdated  = "PROJECT_UPDATED"
)

const (
	ResourceTypeTask    = "task"
	ResourceTypeProject = "project"
	ResourceTypeBucket  = "bucket"
)
