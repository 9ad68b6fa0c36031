package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/weather"
	"github.com/mauzenfan/safety-backend-go/internal/dispatch"
	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// WeatherService runs the contextual weather check for a subject's latest position
type WeatherService struct {
	subjects   SubjectStore
	locations  LocationStore
	advisor    *weather.Advisor
	dispatcher dispatch.Dispatcher
	logger     *zap.Logger
}

// NewWeatherService creates a new weather service
func NewWeatherService(subjects SubjectStore, locations LocationStore, advisor *weather.Advisor, dispatcher dispatch.Dispatcher, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		subjects:   subjects,
		locations:  locations,
		advisor:    advisor,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CheckSubject evaluates the forecast at the subject's latest point and dispatches the resulting alerts
func (s *WeatherService) CheckSubject(ctx context.Context, subject models.Subject, now time.Time) ([]models.AlertEvent, error) {
	latest, err := s.locations.LatestPoint(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	events, err := s.advisor.Check(ctx, subject, latest, now)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return events, nil
	}

	if err := s.dispatcher.Dispatch(ctx, events); err != nil {
		return nil, err
	}
	s.logger.Info("[WeatherService] weather alerts dispatched",
		zap.Int64("subject_id", subject.ID), zap.Int("alerts", len(events)))
	return events, nil
}

// Check looks up the subject and runs CheckSubject
func (s *WeatherService) Check(ctx context.Context, subjectID int64, now time.Time) ([]models.AlertEvent, error) {
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.CheckSubject(ctx, *subject, now)
}
