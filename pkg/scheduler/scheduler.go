// Package scheduler runs background maintenance jobs on cron schedules.
package scheduler

import (
	"canchas/pkg/logger"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
)

type Service struct {
	scheduler gocron.Scheduler
	log       *logger.Logger
	stopOnce  sync.Once
	stopErr   error
}

// New builds a scheduler that evaluates cron expressions in loc. A panicking
// job is logged and does not take the process down.
func New(log *logger.Logger, loc *time.Location) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}

	sched, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error("Scheduler job panicked",
						"job_id", jobID.String(),
						"job_name", jobName,
						"panic", recoverData,
					)
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	return &Service{scheduler: sched, log: log}, nil
}

func (s *Service) Start() {
	if s == nil {
		return
	}
	s.log.Info("Scheduler starting", "jobs", len(s.scheduler.Jobs()))
	s.scheduler.Start()
}

// Stop waits for running jobs and is safe to call more than once.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		s.log.Info("Scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

func (s *Service) AddJob(name, cronExpr string, task func()) (gocron.Job, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	jobLog := s.log.With("job_name", name, "cron", cronExpr)

	wrappedTask := func() {
		start := time.Now()
		jobLog.Debug("Scheduler job started")
		task()
		jobLog.Debug("Scheduler job completed", "duration_ms", time.Since(start).Milliseconds())
	}

	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(wrappedTask),
		gocron.WithName(name),
	)
	if err != nil {
		jobLog.Error("Failed to register scheduler job", "error", err)
		return nil, err
	}
	jobLog.Info("Scheduler job registered")
	return job, nil
}

// ValidateCron reports whether expr is a five field cron expression gocron accepts.
func ValidateCron(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return ErrEmptyCronExpr
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = sched.Shutdown() }()

	_, err = sched.NewJob(gocron.CronJob(expr, false), gocron.NewTask(func() {}))
	return err
}
