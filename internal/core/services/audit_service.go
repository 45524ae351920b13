package services

import (
	"context"
	"fmt"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

type AuditServiceConfig struct {
	TaskRepo    ports.TaskRepository
	TaskService ports.TaskService
	Logger      *logger.Logger
	Repair      bool
}

// auditService scans every live bucket for gaps and duplicates. Repairs go
// through TaskService so they take the same locks as user edits.
type auditService struct {
	tasks   ports.TaskRepository
	taskSvc ports.TaskService
	logger  *logger.Logger
	repair  bool
}

func NewAuditService(cfg AuditServiceConfig) ports.AuditService {
	return &auditService{
		tasks:   cfg.TaskRepo,
		taskSvc: cfg.TaskService,
		logger:  cfg.Logger,
		repair:  cfg.Repair,
	}
}

func (s *auditService) CheckDensity(ctx context.Context) ([]domain.BucketReport, error) {
	keys, err := s.tasks.ListBucketKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	reports := make([]domain.BucketReport, 0, len(keys))
	for _, key := range keys {
		bucket, err := s.tasks.GetBucket(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load bucket %s: %w", key, err)
		}
		reports = append(reports, domain.BucketReport{
			Key:       key,
			Positions: bucket.Positions(),
			Dense:     bucket.IsDense(),
		})
	}
	return reports, nil
}

func (s *auditService) RunOnce(ctx context.Context) (*ports.AuditResult, error) {
	reports, err := s.CheckDensity(ctx)
	if err != nil {
		s.logger.Errorw("audit_density_failed", "error", err)
		return nil, err
	}

	result := &ports.AuditResult{Checked: len(reports)}
	for _, r := range reports {
		if r.Dense {
			continue
		}
		result.Violations = append(result.Violations, r)
		s.logger.Warnw("audit_density_violation", "bucket", r.Key.String(), "positions", r.Positions)

		if !s.repair || s.taskSvc == nil {
			continue
		}
		n, err := s.taskSvc.CompactBoard(ctx, r.Key.ProjectID, r.Key.Column)
		if err != nil {
			s.logger.Errorw("audit_repair_failed", "bucket", r.Key.String(), "error", err)
			continue
		}
		result.Repaired += n
	}

	s.logger.Infow("audit_density_ok", "checked", result.Checked, "violations", len(result.Violations), "repaired", result.Repaired)
	return result, nil
}
