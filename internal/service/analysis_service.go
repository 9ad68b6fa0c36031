package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis"
	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// ErrWeatherDisabled is returned when no forecast provider is configured
var ErrWeatherDisabled = errors.New("weather check is not configured")

// RunReader reads stored batch runs
type RunReader interface {
	Get(ctx context.Context, id string) (*models.AnalysisRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.AnalysisRun, error)
}

// RunView is a run record with its decoded progress and failures
type RunView struct {
	*models.AnalysisRun
	Progress analysis.Progress `json:"progress"`
	Failures map[int64]string  `json:"failures,omitempty"`
}

// AnalysisService runs the scheduled batch passes over all active subjects
type AnalysisService struct {
	engine   *analysis.Engine
	runs     RunReader
	routines *RoutineService
	weather  *WeatherService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalysisService creates a new analysis service. weather may be nil when no forecast provider is configured.
func NewAnalysisService(engine *analysis.Engine, runs RunReader, routines *RoutineService, weather *WeatherService, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		engine:   engine,
		runs:     runs,
		routines: routines,
		weather:  weather,
		logger:   logger,
		now:      time.Now,
	}
}

// passFunc adapts a function to analysis.Pass
type passFunc struct {
	name string
	fn   func(ctx context.Context, subject models.Subject) error
}

func (p passFunc) Name() string { return p.name }

func (p passFunc) Run(ctx context.Context, subject models.Subject) error { return p.fn(ctx, subject) }

// LearnAll relearns the routines of every active subject
func (s *AnalysisService) LearnAll(ctx context.Context) (*RunView, error) {
	now := s.now()
	return s.run(ctx, passFunc{
		name: models.PassLearnRoutines,
		fn: func(ctx context.Context, subject models.Subject) error {
			_, err := s.routines.LearnRoutines(ctx, subject.ID, now)
			return err
		},
	})
}

// DetectAll checks the recent trips of every active subject against its routines
func (s *AnalysisService) DetectAll(ctx context.Context) (*RunView, error) {
	now := s.now()
	return s.run(ctx, passFunc{
		name: models.PassDetectAnomalies,
		fn: func(ctx context.Context, subject models.Subject) error {
			_, err := s.routines.AnalyzeRecentTrips(ctx, subject.ID, now)
			return err
		},
	})
}

// WeatherCheckAll runs the contextual weather check for every active subject
func (s *AnalysisService) WeatherCheckAll(ctx context.Context) (*RunView, error) {
	if s.weather == nil {
		return nil, ErrWeatherDisabled
	}
	now := s.now()
	return s.run(ctx, passFunc{
		name: models.PassWeatherCheck,
		fn: func(ctx context.Context, subject models.Subject) error {
			_, err := s.weather.CheckSubject(ctx, subject, now)
			return err
		},
	})
}

func (s *AnalysisService) run(ctx context.Context, pass analysis.Pass) (*RunView, error) {
	run, err := s.engine.Run(ctx, pass)
	if run == nil {
		return nil, err
	}
	view, verr := newRunView(run)
	if verr != nil {
		s.logger.Warn("[AnalysisService] failed to decode run failures", zap.String("run_id", run.ID), zap.Error(verr))
	}
	return view, err
}

// GetRun returns a stored run
func (s *AnalysisService) GetRun(ctx context.Context, id string) (*RunView, error) {
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return newRunView(run)
}

// ListRuns returns the most recent runs, newest first
func (s *AnalysisService) ListRuns(ctx context.Context, limit int) ([]RunView, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunView, 0, len(runs))
	for i := range runs {
		v, err := newRunView(&runs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func newRunView(run *models.AnalysisRun) (*RunView, error) {
	view := &RunView{AnalysisRun: run, Progress: analysis.ProgressOf(run)}
	failures, err := analysis.DecodeFailures(run.FailuresJSON)
	if err != nil {
		return view, err
	}
	if len(failures) > 0 {
		view.Failures = failures
	}
	return view, nil
}
