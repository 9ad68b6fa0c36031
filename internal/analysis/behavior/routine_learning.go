package behavior

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// Routine learning defaults
const (
	DefaultMinTripsForRoutine = 3
	DefaultLearningWindowDays = 30
	TypicalDayShare           = 0.3 // a weekday must appear in >= 30% of trips
)

// Routine names for the two directions of the home/school pair
const (
	RoutineHomeToSchool = "Home to School"
	RoutineSchoolToHome = "School to Home"
)

// Learner aggregates historical trips of one direction into a LearnedRoutine.
// The aggregation is deliberately literal: longest trip as path, weekday counts, min/max window.
type Learner struct {
	MinTripPoints      int
	MinTripsForRoutine int
	WindowDays         int
	logger             *zap.Logger
}

// NewLearner creates a routine learner. Non-positive values fall back to defaults.
func NewLearner(minTripPoints, minTrips, windowDays int, logger *zap.Logger) *Learner {
	if minTripPoints <= 0 {
		minTripPoints = DefaultMinTripPoints
	}
	if minTrips <= 0 {
		minTrips = DefaultMinTripsForRoutine
	}
	if windowDays <= 0 {
		windowDays = DefaultLearningWindowDays
	}
	return &Learner{
		MinTripPoints:      minTripPoints,
		MinTripsForRoutine: minTrips,
		WindowDays:         windowDays,
		logger:             logger,
	}
}

// Learn builds the routine named name for subjectID from trips that go start -> end.
// Trips with fewer than MinTripPoints points are ignored. It returns false when fewer than
// MinTripsForRoutine usable trips remain, which is a normal outcome.
func (l *Learner) Learn(subjectID int64, name string, trips []models.Trip, start, end models.Place, now time.Time) (*models.LearnedRoutine, bool, error) {
	usable := make([]models.Trip, 0, len(trips))
	for _, t := range trips {
		if len(t.Points) >= l.MinTripPoints {
			usable = append(usable, t)
		}
	}

	if len(usable) == 0 || len(usable) < l.MinTripsForRoutine {
		l.logger.Info("[RoutineLearner] not enough trips",
			zap.Int64("subject_id", subjectID),
			zap.String("routine", name),
			zap.Int("trips", len(usable)),
			zap.Int("required", l.MinTripsForRoutine),
		)
		return nil, false, nil
	}

	// Representative path: the trip with the most points, earliest on ties
	longest := usable[0]
	for _, t := range usable[1:] {
		if len(t.Points) > len(longest.Points) {
			longest = t
		}
	}

	dayCounts := make(map[int]int)
	startSeconds := make([]float64, 0, len(usable))
	for _, t := range usable {
		dayCounts[t.Weekday()]++
		startSeconds = append(startSeconds, float64(t.StartOfDaySeconds()))
	}

	typicalDays := make([]int, 0, len(dayCounts))
	for day, count := range dayCounts {
		if float64(count) >= float64(len(usable))*TypicalDayShare {
			typicalDays = append(typicalDays, day)
		}
	}
	sort.Ints(typicalDays)

	routine := &models.LearnedRoutine{
		SubjectID:             subjectID,
		Name:                  name,
		StartLocationName:     start.Name,
		StartApprox:           start.Center,
		EndLocationName:       end.Name,
		EndApprox:             end.Center,
		TypicalDays:           typicalDays,
		WindowStartMinSeconds: int(floats.Min(startSeconds)),
		WindowStartMaxSeconds: int(floats.Max(startSeconds)),
		ConfidenceScore:       float64(len(usable)) / (float64(l.WindowDays) * 0.5),
		IsActive:              true,
		LastCalculatedAt:      now.UTC(),
	}
	if err := routine.SetRoutePath(longest.Path()); err != nil {
		return nil, false, fmt.Errorf("failed to set route path for %s: %w", name, err)
	}

	l.logger.Info("[RoutineLearner] routine learned",
		zap.Int64("subject_id", subjectID),
		zap.String("routine", name),
		zap.Int("trips", len(usable)),
		zap.Ints("typical_days", typicalDays),
		zap.String("window", models.FormatClock(routine.WindowStartMinSeconds)+"-"+models.FormatClock(routine.WindowStartMaxSeconds)),
		zap.Float64("confidence", routine.ConfidenceScore),
	)
	return routine, true, nil
}
