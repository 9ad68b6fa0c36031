package models

import (
	"time"

	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// LocationPoint is a single GPS fix reported by a subject's device
type LocationPoint struct {
	ID        int64              `json:"id" db:"id"`
	SubjectID int64              `json:"subject_id" db:"subject_id"`
	Position  spatial.Coordinate `json:"position"`
	Timestamp time.Time          `json:"timestamp" db:"ts"`       // UTC
	Accuracy  *float64           `json:"accuracy,omitempty" db:"accuracy"` // meters
}

// Coordinates extracts the positions of points in order
func Coordinates(points []LocationPoint) []spatial.Coordinate {
	coords := make([]spatial.Coordinate, len(points))
	for i, p := range points {
		coords[i] = p.Position
	}
	return coords
}
