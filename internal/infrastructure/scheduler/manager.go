// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/shared/biztime"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// AuditRunner runs the full reconciliation audit.
type AuditRunner interface {
	RunFullAudit(ctx context.Context, dryRun bool) (*dto.AuditReport, error)
}

// SchedulerManager manages all scheduled billing jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
// It initializes gocron with the business timezone for cron expressions.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterEventDrainJob registers the billing event drain job. Provider
// payment events are applied to subscriptions at the given interval,
// starting immediately so a restart never delays a paid renewal.
func (m *SchedulerManager) RegisterEventDrainJob(drainJob BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.drainBillingEvents(ctx, drainJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("billing", "event-drain"),
		gocron.WithName("billing-event-drain"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered billing event drain job", "interval", interval)
	return nil
}

func (m *SchedulerManager) drainBillingEvents(ctx context.Context, drainJob BatchJob) {
	m.logger.Debugw("billing event drain started")

	startTime := biztime.NowUTC()

	applied, err := drainJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("failed to drain billing events",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if applied > 0 {
		m.logger.Infow("billing events applied",
			"count", applied,
			"duration", time.Since(startTime),
		)
	}
}

// RegisterLifecycleJob registers the hourly lifecycle evaluation job.
// The drain job runs as the first step of the same task so payments
// arriving late are applied before any suspension decision.
func (m *SchedulerManager) RegisterLifecycleJob(drainJob, evaluateJob BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.processLifecycle(ctx, drainJob, evaluateJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("billing", "lifecycle"),
		gocron.WithName("subscription-lifecycle"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered lifecycle evaluation job", "interval", "1h")
	return nil
}

func (m *SchedulerManager) processLifecycle(ctx context.Context, drainJob, evaluateJob BatchJob) {
	m.logger.Debugw("lifecycle evaluation started")

	startTime := biztime.NowUTC()

	// Step 1: apply pending payment events.
	applied, err := drainJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("failed to drain billing events before evaluation",
			"error", err,
		)
	} else if applied > 0 {
		m.logger.Infow("billing events applied before evaluation",
			"count", applied,
		)
	}

	// Step 2: advance subscriptions past their boundaries.
	transitioned, err := evaluateJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("failed to evaluate subscriptions",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if transitioned > 0 {
		m.logger.Infow("subscription transitions applied",
			"count", transitioned,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no subscription transitions",
			"duration", time.Since(startTime),
		)
	}
}

// RegisterAuditJob registers the nightly reconciliation audit at 03:00
// business timezone.
func (m *SchedulerManager) RegisterAuditJob(auditor AuditRunner) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 3 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			m.runAudit(ctx, auditor)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("billing", "audit"),
		gocron.WithName("reconciliation-audit"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reconciliation audit job", "schedule", "03:00")
	return nil
}

func (m *SchedulerManager) runAudit(ctx context.Context, auditor AuditRunner) {
	m.logger.Debugw("reconciliation audit started")

	startTime := biztime.NowUTC()

	report, err := auditor.RunFullAudit(ctx, false)
	if err != nil {
		m.logger.Errorw("reconciliation audit failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	m.logger.Infow("reconciliation audit completed",
		"issues", report.TotalIssues,
		"fixed", report.TotalFixed,
		"duration", time.Since(startTime),
	)
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
