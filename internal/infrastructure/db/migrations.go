package db

import (
	"github.com/taskboard/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Project{},
		&domain.Task{},
		&domain.TimelineEvent{},
	)
	if err != nil {
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		return err
	}

	return nil
}

func createCustomIndexes(db *gorm.DB) error {
	// Timeline lookups by task inside a project
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_timeline_events_resource
		ON timeline_events (project_id, resource_type, resource_id)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return err
	}

	// Non-negative ranks only
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`
			DO $$ BEGIN
				ALTER TABLE tasks ADD CONSTRAINT chk_tasks_position_non_negative CHECK (position >= 0);
			EXCEPTION WHEN duplicate_object THEN NULL;
			END $$
		`).Error; err != nil {
			return err
		}
	}

	return nil
}
