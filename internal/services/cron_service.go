package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/config"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = 2 * time.Minute

// JobStatus describes a scheduled job for the admin dashboard
type JobStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	NextRun   time.Time `json:"nextRun"`
	LastRun   time.Time `json:"lastRun"`
	LastError string    `json:"lastError,omitempty"`
	LastCount int64     `json:"lastCount"`
}

// CronService manages scheduled background jobs
type CronService struct {
	cron     *cron.Cron
	snapshot *SnapshotService
	bookings *BookingService
	rules    config.BookingConfig
	logger   *logrus.Logger

	mu   sync.Mutex
	jobs map[string]*JobStatus
	ids  map[string]cron.EntryID
}

// NewCronService creates a new CronService. snapshot may be nil when there is no
// separate file fallback to refresh.
func NewCronService(snapshot *SnapshotService, bookings *BookingService, rules config.BookingConfig, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:     cron.New(cron.WithSeconds()),
		snapshot: snapshot,
		bookings: bookings,
		rules:    rules,
		logger:   logger,
		jobs:     make(map[string]*JobStatus),
		ids:      make(map[string]cron.EntryID),
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service")

	if s.snapshot != nil {
		if err := s.schedule("booking_snapshot", s.rules.SnapshotSchedule, s.SnapshotJob); err != nil {
			return err
		}
	}
	if s.rules.StaleDraftAge > 0 {
		if err := s.schedule("stale_draft_cleanup", s.rules.CleanupSchedule, s.CleanupStaleDraftsJob); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

func (s *CronService) schedule(name, spec string, job func(ctx context.Context) (int64, error)) error {
	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s job: %w", name, err)
	}

	s.mu.Lock()
	s.jobs[name] = &JobStatus{Name: name, Schedule: spec}
	s.ids[name] = id
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Scheduled cron job")
	return nil
}

func (s *CronService) run(name string, job func(ctx context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	count, err := job(ctx)

	s.mu.Lock()
	if status, ok := s.jobs[name]; ok {
		status.LastRun = time.Now().UTC()
		status.LastCount = count
		status.LastError = ""
		if err != nil {
			status.LastError = err.Error()
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("job", name).Error("[CRON] job failed")
	}
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service")
	<-s.cron.Stop().Done()
	s.logger.Info("Cron service stopped")
}

// SnapshotJob refreshes the file fallback from the booking store
func (s *CronService) SnapshotJob(ctx context.Context) (int64, error) {
	n, err := s.snapshot.Run(ctx)
	return int64(n), err
}

// CleanupStaleDraftsJob cancels drafts that never reached checkout
func (s *CronService) CleanupStaleDraftsJob(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.rules.StaleDraftAge)
	canceled, err := s.bookings.CancelStaleDrafts(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale drafts: %w", err)
	}
	if len(canceled) > 0 {
		s.logger.WithFields(logrus.Fields{
			"canceled":   len(canceled),
			"references": canceled,
			"cutoff":     cutoff,
		}).Info("[CRON] Canceled stale draft bookings")
	}
	return int64(len(canceled)), nil
}

// Status returns the scheduled jobs with their next and last runs
func (s *CronService) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for name, job := range s.jobs {
		status := *job
		if id, ok := s.ids[name]; ok {
			status.NextRun = s.cron.Entry(id).Next
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}
