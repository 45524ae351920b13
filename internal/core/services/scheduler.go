package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const auditJobTimeout = 2 * time.Minute

// AuditScheduler runs the density audit on a cron schedule.
type AuditScheduler struct {
	cron   *cron.Cron
	audit  ports.AuditService
	logger *logger.Logger
}

func NewAuditScheduler(audit ports.AuditService, log *logger.Logger) *AuditScheduler {
	return &AuditScheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		audit:  audit,
		logger: log,
	}
}

// Schedule registers the audit job. expr accepts standard five-field
// expressions and descriptors such as "@every 10m".
func (s *AuditScheduler) Schedule(expr string) (cron.EntryID, error) {
	if expr == "" {
		return 0, fmt.Errorf("audit schedule is empty")
	}
	id, err := s.cron.AddFunc(expr, s.runAudit)
	if err != nil {
		return 0, fmt.Errorf("invalid audit schedule %q: %w", expr, err)
	}
	return id, nil
}

func (s *AuditScheduler) runAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), auditJobTimeout)
	defer cancel()
	if _, err := s.audit.RunOnce(ctx); err != nil {
		s.logger.Errorw("audit_job_failed", "error", err)
	}
}

func (s *AuditScheduler) Start() {
	s.cron.Start()
}

func (s *AuditScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
