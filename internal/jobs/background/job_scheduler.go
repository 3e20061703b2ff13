package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"gstbill/internal/config"
	"gstbill/internal/jobs"
)

// jobTimeout bounds a single run of any scheduled job.
const jobTimeout = 2 * time.Minute

type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

type QuotationExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// JobScheduler runs the periodic document maintenance jobs
type JobScheduler struct {
	scheduler  gocron.Scheduler
	invoices   OverdueMarker
	quotations QuotationExpirer
	dashboards *jobs.AnalyticsRefreshService
	policy     config.JobPolicy

	ctx    context.Context
	cancel context.CancelFunc

	jobJobs map[string]gocron.Job
	mu      sync.RWMutex
}

// NewJobScheduler creates a new job scheduler and registers the maintenance jobs
func NewJobScheduler(invoices OverdueMarker, quotations QuotationExpirer, dashboards *jobs.AnalyticsRefreshService, policy config.JobPolicy) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler:  scheduler,
		invoices:   invoices,
		quotations: quotations,
		dashboards: dashboards,
		policy:     policy,
		ctx:        ctx,
		cancel:     cancel,
		jobJobs:    make(map[string]gocron.Job),
	}

	if err := js.registerJobs(); err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Info().Int("jobs", len(js.jobJobs)).Msg("starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return
func (js *JobScheduler) Stop() error {
	log.Info().Msg("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	defs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context) error
	}{
		{"invoice-overdue", js.policy.OverdueCheckInterval.Duration, js.markOverdueInvoices},
		{"quotation-expiry", js.policy.ExpiryCheckInterval.Duration, js.expireQuotations},
		{"dashboard-refresh", js.policy.DashboardRefreshInterval.Duration, js.dashboards.ScheduledAnalyticsRefresh},
	}

	for _, def := range defs {
		if def.interval <= 0 {
			log.Warn().Str("job", def.name).Msg("job disabled: interval not set")
			continue
		}
		job, err := js.scheduler.NewJob(
			gocron.DurationJob(def.interval),
			gocron.NewTask(js.runner(def.name, def.run)),
			gocron.WithName(def.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s job: %w", def.name, err)
		}
		js.jobJobs[def.name] = job
	}
	return nil
}

// runner wraps a job with a timeout and logs its outcome.
func (js *JobScheduler) runner(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(js.ctx, jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("background job failed")
			return
		}
		log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("background job finished")
	}
}

func (js *JobScheduler) markOverdueInvoices(ctx context.Context) error {
	_, err := js.invoices.MarkOverdue(ctx)
	return err
}

func (js *JobScheduler) expireQuotations(ctx context.Context) error {
	_, err := js.quotations.ExpireStale(ctx)
	return err
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobJobs))
	for name, job := range js.jobJobs {
		entry := name
		if next, err := job.NextRun(); err == nil {
			entry = fmt.Sprintf("%s (next %s)", name, next.Format(time.RFC3339))
		}
		names = append(names, entry)
	}
	sort.Strings(names)

	return map[string]interface{}{
		"total_jobs": len(js.jobJobs),
		"jobs":       names,
	}
}
