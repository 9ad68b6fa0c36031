package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/behavior"
	"github.com/mauzenfan/safety-backend-go/internal/dispatch"
	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// RoutineConfig configures routine learning and trip analysis
type RoutineConfig struct {
	HomePlaceName      string
	SchoolPlaceName    string
	LearningWindowDays int
	MinTripPoints      int
	MinTripsForRoutine int
	RecentTripWindow   time.Duration // lookback of AnalyzeRecentTrips
}

// LearnResult summarizes routine learning for one subject
type LearnResult struct {
	SubjectID         int64                  `json:"subject_id"`
	Skipped           bool                   `json:"skipped"`
	Reason            string                 `json:"reason,omitempty"`
	Points            int                    `json:"points"`
	TripsHomeToSchool int                    `json:"trips_home_to_school"`
	TripsSchoolToHome int                    `json:"trips_school_to_home"`
	Routines          []models.RoutineUpsert `json:"routines"`
}

// TripSummary describes one analyzed trip
type TripSummary struct {
	From           string    `json:"from,omitempty"`
	To             string    `json:"to,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Points         int       `json:"points"`
	DistanceMeters float64   `json:"distance_m"`
	Tortuosity     float64   `json:"tortuosity"`
}

// TripAnalysis is the outcome of checking trips against learned routines
type TripAnalysis struct {
	SubjectID int64               `json:"subject_id"`
	Trips     int                 `json:"trips"`
	Summaries []TripSummary       `json:"summaries"`
	Alerts    []models.AlertEvent `json:"alerts"`
}

func summarize(trip models.Trip) (TripSummary, error) {
	path := trip.Path()
	length, err := spatial.PathLength(path)
	if err != nil {
		return TripSummary{}, err
	}
	tortuosity, err := spatial.Tortuosity(path)
	if err != nil {
		return TripSummary{}, err
	}

	sum := TripSummary{
		From:           trip.Start.Name,
		To:             trip.End.Name,
		StartTime:      trip.StartTime(),
		Points:         len(trip.Points),
		DistanceMeters: length,
		Tortuosity:     tortuosity,
	}
	if n := len(trip.Points); n > 0 {
		sum.EndTime = trip.Points[n-1].Timestamp.UTC()
	}
	return sum, nil
}

// RoutineService learns routines from location history and checks new trips against them
type RoutineService struct {
	subjects   SubjectStore
	places     PlaceStore
	locations  LocationStore
	routines   RoutineStore
	segmenter  *behavior.Segmenter
	learner    *behavior.Learner
	detector   *behavior.Detector
	dispatcher dispatch.Dispatcher
	cfg        RoutineConfig
	logger     *zap.Logger
}

// NewRoutineService creates a new routine service
func NewRoutineService(
	subjects SubjectStore,
	places PlaceStore,
	locations LocationStore,
	routines RoutineStore,
	segmenter *behavior.Segmenter,
	learner *behavior.Learner,
	detector *behavior.Detector,
	dispatcher dispatch.Dispatcher,
	cfg RoutineConfig,
	logger *zap.Logger,
) *RoutineService {
	if cfg.HomePlaceName == "" {
		cfg.HomePlaceName = "Home"
	}
	if cfg.SchoolPlaceName == "" {
		cfg.SchoolPlaceName = "Lekol"
	}
	if cfg.LearningWindowDays <= 0 {
		cfg.LearningWindowDays = behavior.DefaultLearningWindowDays
	}
	if cfg.MinTripPoints <= 0 {
		cfg.MinTripPoints = behavior.DefaultMinTripPoints
	}
	if cfg.MinTripsForRoutine <= 0 {
		cfg.MinTripsForRoutine = behavior.DefaultMinTripsForRoutine
	}
	if cfg.RecentTripWindow <= 0 {
		cfg.RecentTripWindow = 24 * time.Hour
	}
	return &RoutineService{
		subjects:   subjects,
		places:     places,
		locations:  locations,
		routines:   routines,
		segmenter:  segmenter,
		learner:    learner,
		detector:   detector,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// placePair looks up the subject owner's home and school places. ok is false when either is missing.
func (s *RoutineService) placePair(ctx context.Context, subject *models.Subject) (home, school *models.Place, ok bool, err error) {
	home, err = s.places.FindActivePlaceByName(ctx, subject.OwnerID, s.cfg.HomePlaceName)
	if err != nil {
		return nil, nil, false, err
	}
	school, err = s.places.FindActivePlaceByName(ctx, subject.OwnerID, s.cfg.SchoolPlaceName)
	if err != nil {
		return nil, nil, false, err
	}
	return home, school, home != nil && school != nil, nil
}

// LearnRoutines learns the Home to School and School to Home routines of a subject from the
// trailing learning window ending at now, and upserts every routine with enough supporting trips.
// Missing places or too little history is a skip, not an error.
func (s *RoutineService) LearnRoutines(ctx context.Context, subjectID int64, now time.Time) (*LearnResult, error) {
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	result := &LearnResult{SubjectID: subject.ID, Routines: []models.RoutineUpsert{}}

	home, school, ok, err := s.placePair(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		result.Skipped = true
		result.Reason = fmt.Sprintf("places %q and %q must both be configured", s.cfg.HomePlaceName, s.cfg.SchoolPlaceName)
		s.logger.Info("[RoutineService] skipping routine learning", zap.Int64("subject_id", subject.ID), zap.String("reason", result.Reason))
		return result, nil
	}

	since := now.AddDate(0, 0, -s.cfg.LearningWindowDays)
	points, err := s.locations.GetLocationPoints(ctx, subject.ID, since, now)
	if err != nil {
		return nil, err
	}
	result.Points = len(points)

	if minPoints := s.cfg.MinTripPoints * s.cfg.MinTripsForRoutine; len(points) < minPoints {
		result.Skipped = true
		result.Reason = fmt.Sprintf("not enough location data: %d points, need %d", len(points), minPoints)
		s.logger.Info("[RoutineService] skipping routine learning", zap.Int64("subject_id", subject.ID), zap.String("reason", result.Reason))
		return result, nil
	}

	segments, err := s.segmenter.Segment(points, *home, *school)
	if err != nil {
		return nil, err
	}
	result.TripsHomeToSchool = len(segments.HomeToSchool)
	result.TripsSchoolToHome = len(segments.SchoolToHome)

	directions := []struct {
		name       string
		trips      []models.Trip
		start, end models.Place
	}{
		{behavior.RoutineHomeToSchool, segments.HomeToSchool, *home, *school},
		{behavior.RoutineSchoolToHome, segments.SchoolToHome, *school, *home},
	}
	for _, d := range directions {
		routine, ok, err := s.learner.Learn(subject.ID, d.name, d.trips, d.start, d.end, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		upsert, err := s.routines.UpsertRoutine(ctx, routine)
		if err != nil {
			return nil, err
		}
		result.Routines = append(result.Routines, upsert)
	}

	return result, nil
}

// AnalyzeTrip checks an explicit trip against the subject's active routines and dispatches at most
// one UNUSUAL_ROUTE alert, stamped with the time of the trip's last point.
func (s *RoutineService) AnalyzeTrip(ctx context.Context, subjectID int64, points []models.LocationPoint) (*TripAnalysis, error) {
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	ordered := make([]models.LocationPoint, len(points))
	copy(ordered, points)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp.Before(ordered[j].Timestamp) })
	for i := range ordered {
		ordered[i].SubjectID = subject.ID
	}

	routines, err := s.routines.GetActiveRoutines(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	result := &TripAnalysis{SubjectID: subject.ID, Trips: 1, Summaries: []TripSummary{}, Alerts: []models.AlertEvent{}}
	if err := s.analyzeInto(ctx, result, *subject, models.Trip{SubjectID: subject.ID, Points: ordered}, routines); err != nil {
		return nil, err
	}
	return result, nil
}

// AnalyzeRecentTrips segments the subject's recent history between its home and school places
// and checks every completed trip against the active routines.
func (s *RoutineService) AnalyzeRecentTrips(ctx context.Context, subjectID int64, now time.Time) (*TripAnalysis, error) {
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	result := &TripAnalysis{SubjectID: subject.ID, Summaries: []TripSummary{}, Alerts: []models.AlertEvent{}}

	routines, err := s.routines.GetActiveRoutines(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	if len(routines) == 0 {
		s.logger.Info("[RoutineService] no learned routines, skipping trip analysis", zap.Int64("subject_id", subject.ID))
		return result, nil
	}

	home, school, ok, err := s.placePair(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Info("[RoutineService] place pair not configured, skipping trip analysis", zap.Int64("subject_id", subject.ID))
		return result, nil
	}

	points, err := s.locations.GetLocationPoints(ctx, subject.ID, now.Add(-s.cfg.RecentTripWindow), now)
	if err != nil {
		return nil, err
	}
	segments, err := s.segmenter.Segment(points, *home, *school)
	if err != nil {
		return nil, err
	}

	trips := append(append([]models.Trip{}, segments.HomeToSchool...), segments.SchoolToHome...)
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].StartTime().Before(trips[j].StartTime()) })
	result.Trips = len(trips)

	for _, trip := range trips {
		if err := s.analyzeInto(ctx, result, *subject, trip, routines); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// analyzeInto checks one trip, dispatches its alert if any and records both in result
func (s *RoutineService) analyzeInto(ctx context.Context, result *TripAnalysis, subject models.Subject, trip models.Trip, routines []models.LearnedRoutine) error {
	ev, err := s.analyze(ctx, subject, trip, routines)
	if err != nil {
		return err
	}
	summary, err := summarize(trip)
	if err != nil {
		return err
	}
	result.Summaries = append(result.Summaries, summary)
	if ev != nil {
		result.Alerts = append(result.Alerts, *ev)
	}
	return nil
}

func (s *RoutineService) analyze(ctx context.Context, subject models.Subject, trip models.Trip, routines []models.LearnedRoutine) (*models.AlertEvent, error) {
	var at time.Time
	if n := len(trip.Points); n > 0 {
		at = trip.Points[n-1].Timestamp
	}

	ev, err := s.detector.Analyze(ctx, subject, trip, routines, at)
	if err != nil || ev == nil {
		return nil, err
	}
	if err := s.dispatcher.Dispatch(ctx, []models.AlertEvent{*ev}); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListRoutines returns all routines of a subject
func (s *RoutineService) ListRoutines(ctx context.Context, subjectID int64) ([]models.LearnedRoutine, error) {
	if _, err := s.subjects.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return s.routines.ListRoutines(ctx, subjectID)
}
