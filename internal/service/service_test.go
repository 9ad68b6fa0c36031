package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis"
	"github.com/mauzenfan/safety-backend-go/internal/analysis/behavior"
	"github.com/mauzenfan/safety-backend-go/internal/analysis/cooldown"
	"github.com/mauzenfan/safety-backend-go/internal/analysis/geofence"
	"github.com/mauzenfan/safety-backend-go/internal/analysis/weather"
	"github.com/mauzenfan/safety-backend-go/internal/dispatch"
	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/repository"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
	"github.com/mauzenfan/safety-backend-go/internal/testutil"
)

const ownerID = 100

var (
	monday    = time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	homePos   = spatial.Coordinate{Lat: 0, Lon: 0}
	schoolPos = spatial.Coordinate{Lat: 1, Lon: 1}
)

// fixture wires the services against a migrated temp database
type fixture struct {
	subjects  *repository.SubjectRepository
	places    *repository.PlaceRepository
	locations *repository.LocationRepository
	alerts    *repository.AlertRepository
	routines  *repository.RoutineRepository
	runs      *repository.AnalysisRunRepository

	policy     *cooldown.Policy
	dispatcher dispatch.Dispatcher
	logger     *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	f := &fixture{
		subjects:  repository.NewSubjectRepository(db),
		places:    repository.NewPlaceRepository(db),
		locations: repository.NewLocationRepository(db),
		alerts:    repository.NewAlertRepository(db),
		routines:  repository.NewRoutineRepository(db),
		runs:      repository.NewAnalysisRunRepository(db),
		logger:    zap.NewNop(),
	}
	f.policy = cooldown.NewPolicy(f.alerts, f.logger)
	f.dispatcher = dispatch.NewStoreDispatcher(f.alerts)
	return f
}

func (f *fixture) subject(t *testing.T, name string) *models.Subject {
	t.Helper()
	s := &models.Subject{OwnerID: ownerID, Name: name, IsActive: true}
	require.NoError(t, f.subjects.Create(context.Background(), s))
	return s
}

// homeAndSchool creates the owner's Home and Lekol places
func (f *fixture) homeAndSchool(t *testing.T) (models.Place, models.Place) {
	t.Helper()
	home := testutil.Place(0, ownerID, "Home", homePos.Lat, homePos.Lon, 150)
	school := testutil.Place(0, ownerID, "Lekol", schoolPos.Lat, schoolPos.Lon, 150)
	require.NoError(t, f.places.Create(context.Background(), &home))
	require.NoError(t, f.places.Create(context.Background(), &school))
	return home, school
}

func (f *fixture) insert(t *testing.T, points []models.LocationPoint) {
	t.Helper()
	for i := range points {
		require.NoError(t, f.locations.Insert(context.Background(), &points[i]))
	}
}

func (f *fixture) locationService() *LocationService {
	return NewLocationService(f.subjects, f.places, f.locations,
		geofence.NewMonitor(f.policy, 0, f.logger),
		geofence.NewBatteryMonitor(f.policy, 0, 0, f.logger),
		f.dispatcher, f.logger)
}

func (f *fixture) routineService() *RoutineService {
	return NewRoutineService(f.subjects, f.places, f.locations, f.routines,
		behavior.NewSegmenter(0, 0, f.logger),
		behavior.NewLearner(0, 0, 0, f.logger),
		behavior.NewDetector(behavior.DefaultDetectorConfig(), f.policy, f.logger),
		f.dispatcher, RoutineConfig{}, f.logger)
}

func (f *fixture) weatherService(provider weather.ForecastProvider) *WeatherService {
	advisor := weather.NewAdvisor(provider, f.policy, weather.Config{}, f.logger)
	return NewWeatherService(f.subjects, f.locations, advisor, f.dispatcher, f.logger)
}

func (f *fixture) analysisService(weatherSvc *WeatherService) *AnalysisService {
	engine := analysis.NewEngine(f.subjects, f.runs, 2, f.logger)
	return NewAnalysisService(engine, f.runs, f.routineService(), weatherSvc, f.logger)
}

// schoolDay is one day of fixes: a seed fix at home at 08:00, a trip to school leaving at 08:05
// and a trip home leaving at 15:00. Transit starts 170m from the origin so trips match routines.
// displaced moves one afternoon fix 6km off the usual path.
func schoolDay(subjectID int64, day time.Time, displaced bool) []models.LocationPoint {
	points := []models.LocationPoint{testutil.Point(subjectID, homePos.Lat, homePos.Lon, day.Add(8*time.Hour))}
	points = append(points, testutil.LinearPoints(subjectID,
		spatial.DestinationPoint(homePos, 45, 170), schoolPos, 6, day.Add(8*time.Hour+5*time.Minute), 5*time.Minute)...)

	afternoon := testutil.LinearPoints(subjectID,
		spatial.DestinationPoint(schoolPos, 225, 170), homePos, 6, day.Add(15*time.Hour), 5*time.Minute)
	if displaced {
		afternoon[3].Position = spatial.DestinationPoint(afternoon[3].Position, 135, 6000)
	}
	return append(points, afternoon...)
}

// learnedWeek stores three school days starting on monday and learns the routines
func (f *fixture) learnedWeek(t *testing.T, svc *RoutineService, subjectID int64) {
	t.Helper()
	for d := 0; d < 3; d++ {
		f.insert(t, schoolDay(subjectID, monday.AddDate(0, 0, d), false))
	}
	res, err := svc.LearnRoutines(context.Background(), subjectID, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.False(t, res.Skipped, res.Reason)
	require.Len(t, res.Routines, 2)
}
