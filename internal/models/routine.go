package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// ErrCorruptRoutinePath is returned when a stored route path cannot be decoded
var ErrCorruptRoutinePath = errors.New("corrupt routine path")

// LearnedRoutine summarizes recurring trips between one ordered place pair
type LearnedRoutine struct {
	ID        int64  `json:"id" db:"id"`
	SubjectID int64  `json:"subject_id" db:"subject_id"`
	Name      string `json:"name" db:"name"` // e.g. "Home to School"

	StartLocationName string             `json:"start_location_name" db:"start_location_name"`
	StartApprox       spatial.Coordinate `json:"start_approx"`
	EndLocationName   string             `json:"end_location_name" db:"end_location_name"`
	EndApprox         spatial.Coordinate `json:"end_approx"`

	TypicalDays           []int `json:"typical_days"`                                   // 0=Mon .. 6=Sun
	WindowStartMinSeconds int   `json:"window_start_min_s" db:"window_start_min_s"`     // seconds of day
	WindowStartMaxSeconds int   `json:"window_start_max_s" db:"window_start_max_s"`     // seconds of day

	// GeoJSON LineString of the representative path; empty when unknown
	RoutePathGeoJSON string `json:"route_path_geojson,omitempty" db:"route_path_geojson"`

	ConfidenceScore  float64   `json:"confidence_score" db:"confidence_score"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	LastCalculatedAt time.Time `json:"last_calculated_at" db:"last_calculated_at"`
}

// HasTypicalDay reports whether day is typical; an empty set matches every day
func (r *LearnedRoutine) HasTypicalDay(day int) bool {
	if len(r.TypicalDays) == 0 {
		return true
	}
	for _, d := range r.TypicalDays {
		if d == day {
			return true
		}
	}
	return false
}

// SetRoutePath encodes path as a GeoJSON LineString
func (r *LearnedRoutine) SetRoutePath(path []spatial.Coordinate) error {
	if len(path) == 0 {
		r.RoutePathGeoJSON = ""
		return nil
	}

	ls := make(orb.LineString, len(path))
	for i, c := range path {
		ls[i] = orb.Point{c.Lon, c.Lat}
	}

	data, err := geojson.NewGeometry(ls).MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode route path: %w", err)
	}
	r.RoutePathGeoJSON = string(data)
	return nil
}

// RoutePath decodes the stored path. An empty column yields a nil path.
func (r *LearnedRoutine) RoutePath() ([]spatial.Coordinate, error) {
	if r.RoutePathGeoJSON == "" {
		return nil, nil
	}

	g, err := geojson.UnmarshalGeometry([]byte(r.RoutePathGeoJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRoutinePath, err)
	}

	ls, ok := g.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("%w: expected LineString, got %s", ErrCorruptRoutinePath, g.Type)
	}

	path := make([]spatial.Coordinate, len(ls))
	for i, p := range ls {
		path[i] = spatial.Coordinate{Lat: p.Lat(), Lon: p.Lon()}
		if err := path[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRoutinePath, err)
		}
	}
	return path, nil
}

// RoutineUpsert is the result of persisting a learned routine
type RoutineUpsert struct {
	Routine *LearnedRoutine `json:"routine"`
	Created bool            `json:"created"`
}
