package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/service"
)

// Job is one scheduled batch pass
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (*service.RunView, error)
}

// Scheduler runs batch passes on fixed intervals until its context is done.
// A run that is still going when its next tick fires is not overlapped.
type Scheduler struct {
	jobs   []Job
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. Jobs with a non-positive interval are dropped.
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	s := &Scheduler{logger: logger}
	for _, j := range jobs {
		if j.Interval > 0 {
			s.jobs = append(s.jobs, j)
		}
	}
	return s
}

// Jobs returns the enabled jobs
func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

// Start launches one goroutine per job
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.loop(ctx, j)
		}(j)
	}
}

// Wait blocks until every job loop has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	s.logger.Info("Scheduled job started", zap.String("job", j.Name), zap.Duration("interval", j.Interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			view, err := j.Run(ctx)
			if err != nil {
				s.logger.Error("Scheduled job failed", zap.String("job", j.Name), zap.Error(err))
				continue
			}
			s.logger.Info("Scheduled job finished",
				zap.String("job", j.Name),
				zap.String("run_id", view.ID),
				zap.String("status", view.Status),
				zap.Int("failed", view.Progress.Failed),
			)
		}
	}
}

// Scheduler builds the batch schedule of the application from cfg intervals
func (a *App) Scheduler(learn, detect, weather time.Duration, logger *zap.Logger) *Scheduler {
	jobs := []Job{
		{Name: models.PassLearnRoutines, Interval: learn, Run: a.Analysis.LearnAll},
		{Name: models.PassDetectAnomalies, Interval: detect, Run: a.Analysis.DetectAll},
	}
	if a.Weather != nil {
		jobs = append(jobs, Job{Name: models.PassWeatherCheck, Interval: weather, Run: a.Analysis.WeatherCheckAll})
	}
	return NewScheduler(logger, jobs...)
}
