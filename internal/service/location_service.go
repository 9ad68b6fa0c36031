package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/geofence"
	"github.com/mauzenfan/safety-backend-go/internal/dispatch"
	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// ErrInvalidUpdate is returned for malformed location updates
var ErrInvalidUpdate = errors.New("invalid location update")

// LocationUpdate is one device report: a batch of fixes and an optional battery level
type LocationUpdate struct {
	SubjectID    int64
	Points       []models.LocationPoint
	BatteryLevel *int
}

// LocationUpdateResult summarizes a processed update
type LocationUpdateResult struct {
	Stored int                 `json:"stored"`
	Alerts []models.AlertEvent `json:"alerts"`
}

// LocationService ingests location updates and runs the per-update safety checks
type LocationService struct {
	subjects   SubjectStore
	places     PlaceStore
	locations  LocationStore
	zones      *geofence.Monitor
	battery    *geofence.BatteryMonitor
	dispatcher dispatch.Dispatcher
	logger     *zap.Logger
}

// NewLocationService creates a new location service
func NewLocationService(
	subjects SubjectStore,
	places PlaceStore,
	locations LocationStore,
	zones *geofence.Monitor,
	battery *geofence.BatteryMonitor,
	dispatcher dispatch.Dispatcher,
	logger *zap.Logger,
) *LocationService {
	return &LocationService{
		subjects:   subjects,
		places:     places,
		locations:  locations,
		zones:      zones,
		battery:    battery,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ProcessLocationUpdate stores each point in timestamp order, evaluates every active place of the
// subject's owner and dispatches zone alerts before moving to the next point, so the alert history
// always reflects earlier points. The battery level is checked once, at the newest point.
func (s *LocationService) ProcessLocationUpdate(ctx context.Context, update LocationUpdate) (*LocationUpdateResult, error) {
	if len(update.Points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidUpdate)
	}
	for _, p := range update.Points {
		if err := p.Position.Validate(); err != nil {
			return nil, err
		}
		if p.Accuracy != nil && *p.Accuracy < 0 {
			return nil, fmt.Errorf("%w: accuracy must be >= 0, got %v", ErrInvalidUpdate, *p.Accuracy)
		}
	}
	if update.BatteryLevel != nil && (*update.BatteryLevel < 0 || *update.BatteryLevel > 100) {
		return nil, fmt.Errorf("%w: battery level %d out of range", ErrInvalidUpdate, *update.BatteryLevel)
	}

	subject, err := s.subjects.GetSubject(ctx, update.SubjectID)
	if err != nil {
		return nil, err
	}

	places, err := s.places.GetActivePlaces(ctx, subject.OwnerID)
	if err != nil {
		return nil, err
	}

	points := make([]models.LocationPoint, len(update.Points))
	copy(points, update.Points)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })

	result := &LocationUpdateResult{Alerts: []models.AlertEvent{}}
	for i := range points {
		p := &points[i]
		p.SubjectID = subject.ID
		p.Timestamp = p.Timestamp.UTC()
		if err := s.locations.Insert(ctx, p); err != nil {
			return result, err
		}
		result.Stored++

		events, err := s.zones.Evaluate(ctx, *subject, places, *p)
		if err != nil {
			return result, err
		}
		if err := s.dispatcher.Dispatch(ctx, events); err != nil {
			return result, err
		}
		result.Alerts = append(result.Alerts, events...)
	}

	newest := points[len(points)-1]
	if err := s.subjects.UpdateBattery(ctx, subject.ID, update.BatteryLevel, newest.Timestamp); err != nil {
		return result, err
	}

	if update.BatteryLevel != nil {
		ev, err := s.battery.Evaluate(ctx, *subject, *update.BatteryLevel, newest.Timestamp)
		if err != nil {
			return result, err
		}
		if ev != nil {
			if err := s.dispatcher.Dispatch(ctx, []models.AlertEvent{*ev}); err != nil {
				return result, err
			}
			result.Alerts = append(result.Alerts, *ev)
		}
	}

	s.logger.Debug("Location update processed",
		zap.Int64("subject_id", subject.ID),
		zap.Int("points", result.Stored),
		zap.Int("alerts", len(result.Alerts)),
	)
	return result, nil
}
