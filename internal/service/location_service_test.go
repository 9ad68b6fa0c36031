package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/repository"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
	"github.com/mauzenfan/safety-backend-go/internal/testutil"
)

func kinds(events []models.AlertEvent) []models.AlertKind {
	out := make([]models.AlertKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestProcessLocationUpdate_ZoneAndBatteryAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home, _ := f.homeAndSchool(t)
	child := f.subject(t, "Mika")
	svc := f.locationService()

	t0 := monday.Add(7 * time.Hour)
	away := spatial.DestinationPoint(homePos, 90, 1000)
	level := 15

	// out of order on purpose, processing follows timestamps
	res, err := svc.ProcessLocationUpdate(ctx, LocationUpdate{
		SubjectID: child.ID,
		Points: []models.LocationPoint{
			testutil.Point(0, away.Lat, away.Lon, t0.Add(30*time.Minute)),
			testutil.Point(0, homePos.Lat, homePos.Lon, t0),
		},
		BatteryLevel: &level,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stored)
	assert.Equal(t, []models.AlertKind{models.AlertEnteredZone, models.AlertLeftZone, models.AlertLowBattery}, kinds(res.Alerts))
	require.NotNil(t, res.Alerts[0].PlaceID)
	assert.Equal(t, home.ID, *res.Alerts[0].PlaceID)
	assert.Equal(t, "Mika has entered Home.", res.Alerts[0].Message)
	assert.Equal(t, t0, res.Alerts[0].Timestamp)
	assert.Equal(t, "Mika has left Home.", res.Alerts[1].Message)
	assert.Equal(t, t0.Add(30*time.Minute), res.Alerts[2].Timestamp)

	stored, total, err := f.alerts.List(ctx, ownerID, models.AlertFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, stored, 3)

	got, err := f.subjects.GetSubject(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BatteryLevel)
	assert.Equal(t, 15, *got.BatteryLevel)
	require.NotNil(t, got.LastSeenAt)
	assert.Equal(t, t0.Add(30*time.Minute), *got.LastSeenAt)

	points, err := f.locations.GetLocationPoints(ctx, child.ID, t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, t0, points[0].Timestamp)
}

func TestProcessLocationUpdate_CooldownsHold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.homeAndSchool(t)
	child := f.subject(t, "Mika")
	svc := f.locationService()

	t0 := monday.Add(7 * time.Hour)
	away := spatial.DestinationPoint(homePos, 90, 1000)
	low, lower := 15, 10

	_, err := svc.ProcessLocationUpdate(ctx, LocationUpdate{
		SubjectID:    child.ID,
		Points:       []models.LocationPoint{testutil.Point(0, homePos.Lat, homePos.Lon, t0)},
		BatteryLevel: &low,
	})
	require.NoError(t, err)

	// leaving five minutes after entering is inside the zone cooldown, battery is inside its hour
	res, err := svc.ProcessLocationUpdate(ctx, LocationUpdate{
		SubjectID:    child.ID,
		Points:       []models.LocationPoint{testutil.Point(0, away.Lat, away.Lon, t0.Add(5*time.Minute))},
		BatteryLevel: &lower,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)

	// the membership is still "inside", so the next fix away reports the exit
	res, err = svc.ProcessLocationUpdate(ctx, LocationUpdate{
		SubjectID: child.ID,
		Points:    []models.LocationPoint{testutil.Point(0, away.Lat, away.Lon, t0.Add(20*time.Minute))},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.AlertKind{models.AlertLeftZone}, kinds(res.Alerts))
}

func TestProcessLocationUpdate_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	child := f.subject(t, "Mika")
	svc := f.locationService()
	t0 := monday.Add(7 * time.Hour)

	_, err := svc.ProcessLocationUpdate(ctx, LocationUpdate{SubjectID: child.ID})
	assert.ErrorIs(t, err, ErrInvalidUpdate)

	_, err = svc.ProcessLocationUpdate(ctx, LocationUpdate{
		SubjectID: child.ID,
		Points: []models.LocationPoint{
			testutil.Point(0, 0, 0, t0),
			testutil.Point(0, 95, 0, t0.Add(time.Minute)),
		},
	})
	assert.ErrorIs(t, err, spatial.ErrInvalidCoordinate)

	bad := 101
	_, err = svc.ProcessLocationUpdate(ctx, LocationUpdate{
		SubjectID:    child.ID,
		Points:       []models.LocationPoint{testutil.Point(0, 0, 0, t0)},
		BatteryLevel: &bad,
	})
	assert.ErrorIs(t, err, ErrInvalidUpdate)

	points, err := f.locations.GetLocationPoints(ctx, child.ID, t0.Add(-time.Hour), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, points)

	_, err = svc.ProcessLocationUpdate(ctx, LocationUpdate{
		SubjectID: 999,
		Points:    []models.LocationPoint{testutil.Point(0, 0, 0, t0)},
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
