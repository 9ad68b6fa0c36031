package behavior

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// Segmentation defaults
const (
	DefaultPlaceProximityMeters = 150.0
	DefaultMinTripPoints        = 5
)

// ErrInsufficientData is returned when an input is too small to analyze
var ErrInsufficientData = errors.New("insufficient data")

type segmentState int

const (
	stateUnknown segmentState = iota
	stateAtHome
	stateAtSchool
	stateInTransitFromHome
	stateInTransitFromSchool
)

func (s segmentState) String() string {
	switch s {
	case stateAtHome:
		return "AT_HOME"
	case stateAtSchool:
		return "AT_SCHOOL"
	case stateInTransitFromHome:
		return "IN_TRANSIT_FROM_HOME"
	case stateInTransitFromSchool:
		return "IN_TRANSIT_FROM_SCHOOL"
	}
	return "UNKNOWN"
}

// Segments holds completed trips in both directions of a place pair
type Segments struct {
	HomeToSchool []models.Trip
	SchoolToHome []models.Trip
}

// Segmenter cuts an ordered location stream into trips between two places
type Segmenter struct {
	ProximityMeters float64
	MinTripPoints   int
	logger          *zap.Logger
}

// NewSegmenter creates a trip segmenter. Non-positive values fall back to defaults.
func NewSegmenter(proximityMeters float64, minTripPoints int, logger *zap.Logger) *Segmenter {
	if proximityMeters <= 0 {
		proximityMeters = DefaultPlaceProximityMeters
	}
	if minTripPoints <= 0 {
		minTripPoints = DefaultMinTripPoints
	}
	return &Segmenter{ProximityMeters: proximityMeters, MinTripPoints: minTripPoints, logger: logger}
}

// classify returns (atHome, atSchool). A point within both radii counts as Home only.
func (s *Segmenter) classify(p models.LocationPoint, home, school models.Place) (bool, bool, error) {
	atHome, err := spatial.Within(p.Position, home.Center, s.ProximityMeters)
	if err != nil {
		return false, false, err
	}
	if atHome {
		return true, false, nil
	}
	atSchool, err := spatial.Within(p.Position, school.Center, s.ProximityMeters)
	if err != nil {
		return false, false, err
	}
	return false, atSchool, nil
}

// Segment walks points in timestamp order through the AT_HOME / AT_SCHOOL / IN_TRANSIT state
// machine. Each returned trip holds the full transit buffer, starting with the first point
// outside the origin and ending with the first point inside the destination.
// Buffers shorter than MinTripPoints are dropped; a return to the origin discards the buffer.
func (s *Segmenter) Segment(points []models.LocationPoint, home, school models.Place) (Segments, error) {
	var out Segments

	ordered := make([]models.LocationPoint, len(points))
	copy(ordered, points)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	state := stateUnknown
	var buffer []models.LocationPoint

	closeTrip := func(start, end models.Place, dst *[]models.Trip) {
		if len(buffer) >= s.MinTripPoints {
			*dst = append(*dst, models.Trip{
				SubjectID: buffer[0].SubjectID,
				Start:     start,
				End:       end,
				Points:    buffer,
			})
		} else {
			s.logger.Debug("[TripSegmenter] dropping short transit",
				zap.Int("points", len(buffer)),
				zap.Int("min_points", s.MinTripPoints),
			)
		}
		buffer = nil
	}

	for i, p := range ordered {
		atHome, atSchool, err := s.classify(p, home, school)
		if err != nil {
			return Segments{}, err
		}

		// The first point seeds the state; it never starts a trip.
		if i == 0 {
			switch {
			case atHome:
				state = stateAtHome
			case atSchool:
				state = stateAtSchool
			}
			continue
		}

		switch state {
		case stateAtHome:
			// any fix outside Home opens a transit, even one already inside School
			if !atHome {
				state = stateInTransitFromHome
				buffer = []models.LocationPoint{p}
			}
		case stateAtSchool:
			if !atSchool {
				state = stateInTransitFromSchool
				buffer = []models.LocationPoint{p}
			}
		case stateInTransitFromHome:
			buffer = append(buffer, p)
			if atSchool {
				closeTrip(home, school, &out.HomeToSchool)
				state = stateAtSchool
			} else if atHome {
				buffer = nil
				state = stateAtHome
			}
		case stateInTransitFromSchool:
			buffer = append(buffer, p)
			if atHome {
				closeTrip(school, home, &out.SchoolToHome)
				state = stateAtHome
			} else if atSchool {
				buffer = nil
				state = stateAtSchool
			}
		case stateUnknown:
			switch {
			case atHome:
				state = stateAtHome
			case atSchool:
				state = stateAtSchool
			}
		}
	}

	s.logger.Debug("[TripSegmenter] segmentation finished",
		zap.Int("points", len(ordered)),
		zap.Int("home_to_school", len(out.HomeToSchool)),
		zap.Int("school_to_home", len(out.SchoolToHome)),
		zap.Stringer("final_state", state),
	)
	return out, nil
}
