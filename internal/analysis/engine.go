package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// Pass is one per-subject analysis, such as routine learning or the weather check.
// A pass only reads and writes records scoped to its own subject.
type Pass interface {
	// Name identifies the pass in run records
	Name() string

	// Run analyzes a single subject
	Run(ctx context.Context, subject models.Subject) error
}

// SubjectSource lists the subjects a batch fans out over
type SubjectSource interface {
	GetActiveSubjects(ctx context.Context) ([]models.Subject, error)
}

// RunStore persists batch run records
type RunStore interface {
	Create(ctx context.Context, run *models.AnalysisRun) error
	Update(ctx context.Context, run *models.AnalysisRun) error
}

// Progress is a snapshot of a batch
type Progress struct {
	Processed int     `json:"processed"` // subjects finished, including failures
	Total     int     `json:"total"`
	Failed    int     `json:"failed"`
	Percent   float64 `json:"percent"` // 0-100
}

// Engine runs a pass over every active subject, concurrently and with per-subject failure
// isolation. One subject's error or panic is recorded and never aborts the batch.
type Engine struct {
	subjects    SubjectSource
	runs        RunStore
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// NewEngine creates a batch engine running at most concurrency subjects at a time
func NewEngine(subjects SubjectSource, runs RunStore, concurrency int, logger *zap.Logger) *Engine {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Engine{
		subjects:    subjects,
		runs:        runs,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes pass for all active subjects and returns the completed run record.
// The returned error is only set when the batch itself could not run.
func (e *Engine) Run(ctx context.Context, pass Pass) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{
		ID:        uuid.NewString(),
		PassName:  pass.Name(),
		Status:    models.RunStatusRunning,
		StartedAt: e.now().UTC(),
	}
	if err := e.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record analysis run: %w", err)
	}

	subjects, err := e.subjects.GetActiveSubjects(ctx)
	if err != nil {
		e.finish(ctx, run, models.RunStatusFailed, map[int64]string{0: err.Error()})
		return run, fmt.Errorf("failed to list active subjects: %w", err)
	}
	run.TotalSubjects = len(subjects)

	e.logger.Info("[Engine] batch started",
		zap.String("run_id", run.ID),
		zap.String("pass", run.PassName),
		zap.Int("subjects", len(subjects)),
		zap.Int("concurrency", e.concurrency),
	)

	var (
		mu       sync.Mutex
		failures = make(map[int64]string)
		g        errgroup.Group
	)
	g.SetLimit(e.concurrency)

	for _, subject := range subjects {
		subject := subject
		g.Go(func() error {
			err := e.runOne(ctx, pass, subject)

			mu.Lock()
			defer mu.Unlock()
			run.ProcessedSubjects++
			if err != nil {
				failures[subject.ID] = err.Error()
				run.FailedSubjects = len(failures)
				e.logger.Warn("[Engine] subject pass failed",
					zap.String("pass", run.PassName),
					zap.Int64("subject_id", subject.ID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	status := models.RunStatusCompleted
	if len(failures) > 0 {
		status = models.RunStatusCompletedWithErrors
	}
	e.finish(ctx, run, status, failures)

	p := ProgressOf(run)
	e.logger.Info("[Engine] batch finished",
		zap.String("run_id", run.ID),
		zap.String("status", run.Status),
		zap.Int("processed", p.Processed),
		zap.Int("failed", p.Failed),
	)
	return run, nil
}

// runOne runs pass for a single subject, converting a panic into an error
func (e *Engine) runOne(ctx context.Context, pass Pass, subject models.Subject) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("[Engine] panic in subject pass",
				zap.Int64("subject_id", subject.ID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return pass.Run(ctx, subject)
}

func (e *Engine) finish(ctx context.Context, run *models.AnalysisRun, status string, failures map[int64]string) {
	completed := e.now().UTC()
	run.Status = status
	run.CompletedAt = &completed
	run.FailuresJSON = encodeFailures(failures)

	if err := e.runs.Update(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Error("[Engine] failed to update analysis run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// ProgressOf computes the progress of a run record
func ProgressOf(run *models.AnalysisRun) Progress {
	p := Progress{
		Processed: run.ProcessedSubjects,
		Total:     run.TotalSubjects,
		Failed:    run.FailedSubjects,
	}
	if p.Total > 0 {
		p.Percent = float64(p.Processed) / float64(p.Total) * 100.0
	} else if run.Status != models.RunStatusRunning {
		p.Percent = 100
	}
	return p
}

// encodeFailures renders subject_id -> message as a JSON object
func encodeFailures(failures map[int64]string) string {
	if len(failures) == 0 {
		return ""
	}
	out := make(map[string]string, len(failures))
	for id, msg := range failures {
		out[strconv.FormatInt(id, 10)] = msg
	}
	data, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	return string(data)
}

// DecodeFailures parses a run's FailuresJSON
func DecodeFailures(s string) (map[int64]string, error) {
	if s == "" {
		return map[int64]string{}, nil
	}
	var raw map[string]string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode run failures: %w", err)
	}
	out := make(map[int64]string, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode run failures: bad subject id %q", k)
		}
		out[id] = v
	}
	return out, nil
}
