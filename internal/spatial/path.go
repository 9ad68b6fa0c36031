package spatial

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// NearestVertexDistance returns the distance in meters from p to the closest vertex of path.
// An empty path yields +Inf. Vertices are compared brute force.
func NearestVertexDistance(p Coordinate, path []Coordinate) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	minDist := math.Inf(1)
	for _, v := range path {
		d, err := Distance(p, v)
		if err != nil {
			return 0, err
		}
		if d < minDist {
			minDist = d
		}
	}
	return minDist, nil
}

// AverageDistanceToPath is the mean of NearestVertexDistance over every point of trip.
// Returns +Inf when either side is empty.
func AverageDistanceToPath(trip, path []Coordinate) (float64, error) {
	if len(trip) == 0 || len(path) == 0 {
		return math.Inf(1), nil
	}

	dists := make([]float64, 0, len(trip))
	for _, p := range trip {
		d, err := NearestVertexDistance(p, path)
		if err != nil {
			return 0, err
		}
		dists = append(dists, d)
	}
	return stat.Mean(dists, nil), nil
}
