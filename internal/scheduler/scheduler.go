// Package scheduler runs the periodic hangar jobs: the delay sweep and the
// end-of-day report.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/report"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron      *cron.Cron
	store     *hangar.Store
	reportDir string
	log       *logrus.Entry
}

func New(store *hangar.Store, loc *time.Location, reportDir string, logger *logrus.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		store:     store,
		reportDir: reportDir,
		log:       logger.WithField("component", "scheduler"),
	}
}

// Register adds the delay sweep and the daily report. An empty spec leaves
// that job out.
func (s *Scheduler) Register(delaySpec, dailySpec string) error {
	if delaySpec != "" {
		if _, err := s.cron.AddFunc(delaySpec, func() { s.SweepDelays() }); err != nil {
			return fmt.Errorf("delay sweep %q: %w", delaySpec, err)
		}
		s.log.WithField("spec", delaySpec).Info("Scheduled delay sweep")
	}
	if dailySpec != "" {
		_, err := s.cron.AddFunc(dailySpec, func() {
			if _, err := s.WriteDailyReport(); err != nil {
				s.log.WithError(err).Error("Daily report failed")
			}
		})
		if err != nil {
			return fmt.Errorf("daily report %q: %w", dailySpec, err)
		}
		s.log.WithField("spec", dailySpec).Info("Scheduled daily report")
	}
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops the runner and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stopped before running jobs finished")
		return
	}
	s.log.Info("Scheduler stopped")
}

// SweepDelays logs every open job running past its estimate.
func (s *Scheduler) SweepDelays() []hangar.TimelineEntry {
	snap := s.store.Snapshot()
	delayed := hangar.DelayedJobs(&snap, s.store.Now())
	for _, e := range delayed {
		entry := s.log.WithFields(logrus.Fields{
			"job_id":          e.Job.ID.Hex(),
			"vehicle":         e.VehicleCode,
			"elapsed_hours":   e.ElapsedHours,
			"estimated_hours": e.Job.EstimatedHours,
			"status":          e.Job.Status,
		})
		if e.Overdue {
			entry.Warn("Job overdue")
		} else {
			entry.Info("Job delayed")
		}
	}
	s.log.WithField("delayed", len(delayed)).Debug("Delay sweep finished")
	return delayed
}

// WriteDailyReport saves today's report workbook and returns its path.
func (s *Scheduler) WriteDailyReport() (string, error) {
	snap := s.store.Snapshot()
	d := report.BuildDaily(&snap, s.store.Today(), s.store.Now())
	path, err := report.SaveDaily(s.reportDir, d)
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"path": path, "jobs": len(d.Timeline)}).Info("Daily report written")
	return path, nil
}
