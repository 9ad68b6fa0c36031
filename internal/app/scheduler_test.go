package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/service"
)

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	var ok, failed int32
	s := NewScheduler(zap.NewNop(),
		Job{Name: "ok", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) (*service.RunView, error) {
			atomic.AddInt32(&ok, 1)
			return &service.RunView{AnalysisRun: &models.AnalysisRun{ID: "r", Status: models.RunStatusCompleted}}, nil
		}},
		Job{Name: "failing", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) (*service.RunView, error) {
			atomic.AddInt32(&failed, 1)
			return nil, errors.New("boom")
		}},
		Job{Name: "disabled", Interval: 0},
	)
	assert.Len(t, s.Jobs(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ok) >= 2 && atomic.LoadInt32(&failed) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()
}

func TestApp_SchedulerSkipsWeatherWithoutProvider(t *testing.T) {
	a := newTestApp(t)
	s := a.Scheduler(time.Hour, time.Minute, time.Hour, zap.NewNop())
	names := make([]string, 0, len(s.Jobs()))
	for _, j := range s.Jobs() {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{"learn_routines", "detect_anomalies"}, names)
}
