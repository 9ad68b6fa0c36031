package models

import (
	"time"

	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// Trip is a contiguous, timestamp-ordered run of points captured while a subject travelled
// from Start to End. Trips are transient; only the learned routine derived from them is stored.
type Trip struct {
	SubjectID int64           `json:"subject_id"`
	Start     Place           `json:"start"`
	End       Place           `json:"end"`
	Points    []LocationPoint `json:"points"`
}

// StartTime returns the timestamp of the first point in UTC
func (t Trip) StartTime() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[0].Timestamp.UTC()
}

// Weekday returns the weekday of the trip start, 0=Monday .. 6=Sunday
func (t Trip) Weekday() int {
	return Weekday(t.StartTime())
}

// StartOfDaySeconds returns seconds since UTC midnight of the trip start
func (t Trip) StartOfDaySeconds() int {
	return SecondsOfDay(t.StartTime())
}

// Path returns the trip coordinates in order
func (t Trip) Path() []spatial.Coordinate {
	return Coordinates(t.Points)
}

// Weekday converts ts to 0=Monday .. 6=Sunday
func Weekday(ts time.Time) int {
	return (int(ts.UTC().Weekday()) + 6) % 7
}

// SecondsOfDay returns seconds elapsed since UTC midnight
func SecondsOfDay(ts time.Time) int {
	u := ts.UTC()
	return u.Hour()*3600 + u.Minute()*60 + u.Second()
}

// FormatClock renders seconds-of-day as HH:MM
func FormatClock(seconds int) string {
	return time.Date(0, 1, 1, 0, 0, seconds, 0, time.UTC).Format("15:04")
}
