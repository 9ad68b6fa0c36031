// Package app wires repositories, analytics components, services and the HTTP router.
package app

import (
	"context"
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis"
	"github.com/mauzenfan/safety-backend-go/internal/analysis/behavior"
	"github.com/mauzenfan/safety-backend-go/internal/analysis/cooldown"
	"github.com/mauzenfan/safety-backend-go/internal/analysis/geofence"
	"github.com/mauzenfan/safety-backend-go/internal/analysis/weather"
	"github.com/mauzenfan/safety-backend-go/internal/api"
	"github.com/mauzenfan/safety-backend-go/internal/config"
	"github.com/mauzenfan/safety-backend-go/internal/dispatch"
	"github.com/mauzenfan/safety-backend-go/internal/handler"
	"github.com/mauzenfan/safety-backend-go/internal/repository"
	"github.com/mauzenfan/safety-backend-go/internal/service"
)

// Dependencies are the external resources of the application. Redis and Forecasts may be nil.
type Dependencies struct {
	DB        *sql.DB
	Redis     *redis.Client
	Forecasts weather.ForecastProvider
	Logger    *zap.Logger
}

// App holds the wired services and the HTTP router
type App struct {
	Router *gin.Engine

	Locations *service.LocationService
	Routines  *service.RoutineService
	Weather   *service.WeatherService // nil without a forecast provider
	Alerts    *service.AlertService
	Analysis  *service.AnalysisService
}

// New wires the application. Background goroutines stop when ctx is done.
func New(ctx context.Context, cfg *config.Config, deps Dependencies) *App {
	logger := deps.Logger
	a := cfg.Analytics

	subjects := repository.NewSubjectRepository(deps.DB)
	places := repository.NewPlaceRepository(deps.DB)
	locations := repository.NewLocationRepository(deps.DB)
	alerts := repository.NewAlertRepository(deps.DB)
	routines := repository.NewRoutineRepository(deps.DB)
	runs := repository.NewAnalysisRunRepository(deps.DB)

	// Alerts are persisted first so the cooldown policy reads its own writes
	var (
		dispatcher dispatch.Dispatcher = dispatch.NewStoreDispatcher(alerts)
		publisher  *dispatch.RedisPublisher
	)
	if deps.Redis != nil {
		publisher = dispatch.NewRedisPublisher(deps.Redis, logger.Named("dispatch"))
		dispatcher = dispatch.NewChain(logger.Named("dispatch"), dispatcher, publisher)
	}

	policy := cooldown.NewPolicy(alerts, logger.Named("cooldown"))

	out := &App{}
	out.Locations = service.NewLocationService(subjects, places, locations,
		geofence.NewMonitor(policy, a.ZoneCooldown, logger.Named("geofence")),
		geofence.NewBatteryMonitor(policy, a.LowBatteryThreshold, a.LowBatteryCooldown, logger.Named("geofence")),
		dispatcher, logger.Named("location"))

	behaviorLogger := logger.Named("behavior")
	out.Routines = service.NewRoutineService(subjects, places, locations, routines,
		behavior.NewSegmenter(a.PlaceProximityMeters, a.MinTripPoints, behaviorLogger),
		behavior.NewLearner(a.MinTripPoints, a.MinTripsForRoutine, a.LearningWindowDays, behaviorLogger),
		behavior.NewDetector(behavior.DetectorConfig{
			MinTripPoints:        a.MinTripPoints,
			MatchProximityMeters: a.TripMatchProximityMeters,
			PathDeviationMeters:  a.PathDeviationMeters,
			TimeDeviation:        a.TimeDeviation,
			Cooldown:             a.UnusualRouteCooldown,
		}, policy, behaviorLogger),
		dispatcher,
		service.RoutineConfig{
			HomePlaceName:      cfg.HomePlaceName,
			SchoolPlaceName:    cfg.SchoolPlaceName,
			LearningWindowDays: a.LearningWindowDays,
			MinTripPoints:      a.MinTripPoints,
			MinTripsForRoutine: a.MinTripsForRoutine,
		},
		logger.Named("routine"))

	if deps.Forecasts != nil {
		advisor := weather.NewAdvisor(deps.Forecasts, policy, weather.Config{Cooldown: a.WeatherCooldown}, logger.Named("weather"))
		out.Weather = service.NewWeatherService(subjects, locations, advisor, dispatcher, logger.Named("weather"))
	}

	out.Alerts = service.NewAlertService(alerts, publisher)

	engine := analysis.NewEngine(subjects, runs, cfg.BatchConcurrency, logger.Named("engine"))
	out.Analysis = service.NewAnalysisService(engine, runs, out.Routines, out.Weather, logger.Named("analysis"))

	handlers := api.Handlers{
		Locations: handler.NewLocationHandler(out.Locations),
		Routines:  handler.NewRoutineHandler(out.Routines),
		Alerts:    handler.NewAlertHandler(out.Alerts),
		Analysis:  handler.NewAnalysisHandler(out.Analysis),
	}
	if out.Weather != nil {
		handlers.Weather = handler.NewWeatherHandler(out.Weather)
	}
	out.Router = api.SetupRouter(ctx, cfg, handlers, logger.Named("http"))

	return out
}
