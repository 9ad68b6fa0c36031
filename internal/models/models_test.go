package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

func TestWeekday_MondayIsZero(t *testing.T) {
	monday := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, Weekday(monday))
	assert.Equal(t, 6, Weekday(monday.AddDate(0, 0, 6)))
}

func TestSecondsOfDayAndClock(t *testing.T) {
	ts := time.Date(2026, 10, 12, 8, 5, 30, 0, time.UTC)
	assert.Equal(t, 8*3600+5*60+30, SecondsOfDay(ts))
	assert.Equal(t, "08:05", FormatClock(SecondsOfDay(ts)))
}

func TestTrip_StartAccessors(t *testing.T) {
	start := time.Date(2026, 10, 14, 7, 45, 0, 0, time.UTC) // Wednesday
	trip := Trip{Points: []LocationPoint{
		{Position: spatial.Coordinate{Lat: 1, Lon: 2}, Timestamp: start},
		{Position: spatial.Coordinate{Lat: 1.1, Lon: 2.1}, Timestamp: start.Add(time.Minute)},
	}}

	assert.Equal(t, start, trip.StartTime())
	assert.Equal(t, 2, trip.Weekday())
	assert.Equal(t, 7*3600+45*60, trip.StartOfDaySeconds())
	assert.Equal(t, []spatial.Coordinate{{Lat: 1, Lon: 2}, {Lat: 1.1, Lon: 2.1}}, trip.Path())
}

func TestLearnedRoutine_RoutePathRoundTrip(t *testing.T) {
	path := []spatial.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0.5, Lon: 0.25}, {Lat: 1, Lon: 1}}

	var r LearnedRoutine
	require.NoError(t, r.SetRoutePath(path))
	assert.Contains(t, r.RoutePathGeoJSON, `"LineString"`)

	got, err := r.RoutePath()
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestLearnedRoutine_RoutePathCorrupt(t *testing.T) {
	cases := []string{
		`not json`,
		`{"type":"Point","coordinates":[1,2]}`,
		`{"type":"LineString","coordinates":[[500,2]]}`,
	}
	for _, c := range cases {
		r := LearnedRoutine{RoutePathGeoJSON: c}
		_, err := r.RoutePath()
		assert.ErrorIs(t, err, ErrCorruptRoutinePath, c)
	}
}

func TestLearnedRoutine_EmptyPath(t *testing.T) {
	var r LearnedRoutine
	require.NoError(t, r.SetRoutePath(nil))
	path, err := r.RoutePath()
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestLearnedRoutine_HasTypicalDay(t *testing.T) {
	r := LearnedRoutine{}
	assert.True(t, r.HasTypicalDay(3))

	r.TypicalDays = []int{0, 2}
	assert.True(t, r.HasTypicalDay(2))
	assert.False(t, r.HasTypicalDay(5))
}

func TestAlertKind(t *testing.T) {
	assert.True(t, AlertUnusualRoute.Valid())
	assert.False(t, AlertKind("BOGUS").Valid())
	assert.True(t, AlertLeftZone.IsZoneTransition())
	assert.False(t, AlertLowBattery.IsZoneTransition())
}

func TestNewAlertEvent(t *testing.T) {
	placeID := int64(9)
	at := time.Date(2026, 10, 12, 8, 0, 0, 0, time.FixedZone("x", 3600))
	ev := NewAlertEvent(AlertEnteredZone, Subject{ID: 3, OwnerID: 7}, &placeID, "hi", at)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, int64(3), ev.SubjectID)
	assert.Equal(t, int64(7), ev.OwnerID)
	assert.Equal(t, &placeID, ev.PlaceID)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
	assert.True(t, at.Equal(ev.Timestamp))
}
