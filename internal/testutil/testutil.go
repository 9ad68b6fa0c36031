// Package testutil provides shared fixtures and in-memory stores for tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// MemoryAlertStore is an in-memory alert history with read-after-write semantics
type MemoryAlertStore struct {
	mu     sync.Mutex
	alerts []models.AlertEvent
}

// NewMemoryAlertStore creates an empty store seeded with alerts
func NewMemoryAlertStore(alerts ...models.AlertEvent) *MemoryAlertStore {
	return &MemoryAlertStore{alerts: append([]models.AlertEvent(nil), alerts...)}
}

// RecentAlerts returns alerts of kind for subject at or after since, newest first
func (s *MemoryAlertStore) RecentAlerts(ctx context.Context, subjectID int64, kind models.AlertKind, since time.Time) ([]models.AlertEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.AlertEvent
	for _, a := range s.alerts {
		if a.SubjectID == subjectID && a.Kind == kind && !a.Timestamp.Before(since) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Dispatch records events, satisfying the dispatcher interface
func (s *MemoryAlertStore) Dispatch(ctx context.Context, events []models.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, events...)
	return nil
}

// All returns a copy of every stored alert in insertion order
func (s *MemoryAlertStore) All() []models.AlertEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AlertEvent(nil), s.alerts...)
}

// CountKind counts stored alerts of kind
func (s *MemoryAlertStore) CountKind(kind models.AlertKind) int {
	n := 0
	for _, a := range s.All() {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Place builds an active place
func Place(id, ownerID int64, name string, lat, lon, radius float64) models.Place {
	return models.Place{
		ID:           id,
		OwnerID:      ownerID,
		Name:         name,
		Center:       spatial.Coordinate{Lat: lat, Lon: lon},
		RadiusMeters: radius,
		IsActive:     true,
	}
}

// Point builds a location point
func Point(subjectID int64, lat, lon float64, ts time.Time) models.LocationPoint {
	return models.LocationPoint{
		SubjectID: subjectID,
		Position:  spatial.Coordinate{Lat: lat, Lon: lon},
		Timestamp: ts.UTC(),
	}
}

// LinearPoints returns n+1 points linearly interpolated from a to b, one every step,
// starting at start.
func LinearPoints(subjectID int64, a, b spatial.Coordinate, n int, start time.Time, step time.Duration) []models.LocationPoint {
	points := make([]models.LocationPoint, 0, n+1)
	for j := 0; j <= n; j++ {
		f := float64(j) / float64(n)
		lat := a.Lat + (b.Lat-a.Lat)*f
		lon := a.Lon + (b.Lon-a.Lon)*f
		points = append(points, Point(subjectID, lat, lon, start.Add(time.Duration(j)*step)))
	}
	return points
}

// NextWeekday returns the first date on or after from that falls on day (0=Mon), at hh:mm UTC
func NextWeekday(from time.Time, day, hh, mm int) time.Time {
	from = from.UTC()
	offset := (day - models.Weekday(from) + 7) % 7
	d := from.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, time.UTC)
}
