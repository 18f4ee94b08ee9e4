package jobs

import (
	"context"
	"log/slog"
	"time"
)

const JobRemoteRefresh = "remote_refresh"

type Recorder interface {
	RecordJob(jobType string, err error)
}

// Refresher re-reads the collection, which pulls from the remote and
// refreshes the local cache as a side effect.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Service struct {
	refresher Refresher
	interval  time.Duration
	recorder  Recorder
	queue     chan job
}

type job struct {
	Type string
	Run  func(context.Context) error
}

func New(refresher Refresher, interval time.Duration, recorder Recorder) *Service {
	return &Service{
		refresher: refresher,
		interval:  interval,
		recorder:  recorder,
		queue:     make(chan job, 16),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.interval > 0 && s.refresher != nil {
		go s.scheduleRefresh(ctx, s.interval)
	}
}

// Enqueue drops the job with a warning when the queue is full.
func (s *Service) Enqueue(jobType string, run func(context.Context) error) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) error) error {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	start := time.Now()
	err := j.Run(ctx)
	if s.recorder != nil {
		s.recorder.RecordJob(j.Type, err)
	}
	slog.Debug("job finished", "jobType", j.Type, "durationMs", time.Since(start).Milliseconds(), "failed", err != nil)
	return err
}

func (s *Service) scheduleRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobRemoteRefresh, s.refresher.Refresh)
		}
	}
}
