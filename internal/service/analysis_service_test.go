package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/repository"
)

func TestAnalysisService_LearnAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.homeAndSchool(t)
	mika := f.subject(t, "Mika")
	f.subject(t, "Noor") // no history, skipped without failing

	for d := 0; d < 3; d++ {
		f.insert(t, schoolDay(mika.ID, monday.AddDate(0, 0, d), false))
	}

	svc := f.analysisService(nil)
	svc.now = func() time.Time { return monday.AddDate(0, 0, 7) }

	view, err := svc.LearnAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PassLearnRoutines, view.PassName)
	assert.Equal(t, models.RunStatusCompleted, view.Status)
	assert.Equal(t, 2, view.Progress.Total)
	assert.Equal(t, 2, view.Progress.Processed)
	assert.Zero(t, view.Progress.Failed)
	assert.InDelta(t, 100.0, view.Progress.Percent, 1e-9)
	assert.Nil(t, view.Failures)

	routines, err := f.routines.ListRoutines(ctx, mika.ID)
	require.NoError(t, err)
	assert.Len(t, routines, 2)

	stored, err := svc.GetRun(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	runs, err := svc.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, view.ID, runs[0].ID)

	_, err = svc.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAnalysisService_DetectAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.homeAndSchool(t)
	mika := f.subject(t, "Mika")
	f.learnedWeek(t, f.routineService(), mika.ID)

	day := monday.AddDate(0, 0, 7)
	f.insert(t, schoolDay(mika.ID, day, true))

	svc := f.analysisService(nil)
	svc.now = func() time.Time { return day.Add(20 * time.Hour) }

	view, err := svc.DetectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PassDetectAnomalies, view.PassName)
	assert.Equal(t, models.RunStatusCompleted, view.Status)

	_, total, err := f.alerts.List(ctx, ownerID, models.AlertFilter{Kind: string(models.AlertUnusualRoute)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestAnalysisService_WeatherCheckAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := monday.Add(7 * time.Hour)

	_, err := f.analysisService(nil).WeatherCheckAll(ctx)
	assert.ErrorIs(t, err, ErrWeatherDisabled)

	mika := f.subject(t, "Mika")
	require.NoError(t, f.subjects.UpdateBattery(ctx, mika.ID, nil, now.Add(-5*time.Minute)))
	f.insert(t, schoolDay(mika.ID, monday, false)[:1])

	svc := f.analysisService(f.weatherService(&fixedForecast{forecast: rainSoon(now)}))
	svc.now = func() time.Time { return now }

	view, err := svc.WeatherCheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PassWeatherCheck, view.PassName)
	assert.Equal(t, 1, view.Progress.Processed)

	_, total, err := f.alerts.List(ctx, ownerID, models.AlertFilter{Kind: string(models.AlertContextualWeather)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
