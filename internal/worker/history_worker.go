package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/data-collector/internal/service"
)

// Pruner deletes history rows older than a retention window.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// HistoryPruner runs the retention job on a cron schedule.
type HistoryPruner struct {
	cron      *cron.Cron
	pruner    Pruner
	retention time.Duration
	schedule  string
	logger    *zap.Logger
}

// NewHistoryPruner creates a pruner. schedule accepts standard cron specs and
// descriptors such as "@daily" or "@every 6h".
func NewHistoryPruner(pruner Pruner, schedule string, retention time.Duration, logger *zap.Logger) *HistoryPruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryPruner{
		cron:      cron.New(),
		pruner:    pruner,
		retention: retention,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start registers the job and starts the scheduler.
func (p *HistoryPruner) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.schedule, func() { p.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule history prune %q: %w", p.schedule, err)
	}
	p.cron.Start()
	p.logger.Info("history pruner started",
		zap.String("schedule", p.schedule),
		zap.Duration("retention", p.retention))
	return nil
}

// RunOnce executes a single prune pass.
func (p *HistoryPruner) RunOnce(ctx context.Context) {
	if _, err := p.pruner.Prune(ctx, p.retention); err != nil {
		p.logger.Warn("history prune failed", zap.Error(err))
	}
}

// Stop halts the scheduler and waits for a running job to finish.
func (p *HistoryPruner) Stop() {
	<-p.cron.Stop().Done()
	p.logger.Info("history pruner stopped")
}

// StartHistoryWorker registers the history event handlers and, when retention
// is enabled, starts the prune schedule. The returned pruner is nil when
// nothing was scheduled.
func StartHistoryWorker(ctx context.Context, history *service.HistoryService, schedule string, retention time.Duration, logger *zap.Logger) (*HistoryPruner, error) {
	if !history.Enabled() {
		return nil, nil
	}
	history.RegisterHandlers()
	if retention <= 0 || schedule == "" {
		return nil, nil
	}
	pruner := NewHistoryPruner(history, schedule, retention, logger)
	if err := pruner.Start(ctx); err != nil {
		return nil, err
	}
	return pruner, nil
}
