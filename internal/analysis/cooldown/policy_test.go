package cooldown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/testutil"
)

var base = time.Date(2026, 10, 12, 12, 0, 0, 0, time.UTC)

func alert(kind models.AlertKind, subjectID int64, placeID *int64, msg string, at time.Time) models.AlertEvent {
	return models.AlertEvent{ID: msg + at.String(), Kind: kind, SubjectID: subjectID, PlaceID: placeID, Message: msg, Timestamp: at}
}

func ptr(v int64) *int64 { return &v }

func TestSuppressed_SubjectScope(t *testing.T) {
	store := testutil.NewMemoryAlertStore(
		alert(models.AlertLowBattery, 1, nil, "Battery low", base),
	)
	p := NewPolicy(store, zap.NewNop())
	ctx := context.Background()

	got, err := p.Suppressed(ctx, SubjectScope(models.AlertLowBattery, 1), base.Add(30*time.Minute), time.Hour)
	require.NoError(t, err)
	assert.True(t, got, "inside window")

	got, err = p.Suppressed(ctx, SubjectScope(models.AlertLowBattery, 1), base.Add(61*time.Minute), time.Hour)
	require.NoError(t, err)
	assert.False(t, got, "window expired")

	got, err = p.Suppressed(ctx, SubjectScope(models.AlertLowBattery, 2), base.Add(time.Minute), time.Hour)
	require.NoError(t, err)
	assert.False(t, got, "other subject")

	got, err = p.Suppressed(ctx, SubjectScope(models.AlertUnusualRoute, 1), base.Add(time.Minute), time.Hour)
	require.NoError(t, err)
	assert.False(t, got, "other kind")
}

func TestSuppressed_ZoneScopeIsPerPlace(t *testing.T) {
	store := testutil.NewMemoryAlertStore(
		alert(models.AlertLeftZone, 1, ptr(10), "Left Home", base),
	)
	p := NewPolicy(store, zap.NewNop())
	ctx := context.Background()

	got, err := p.Suppressed(ctx, ZoneScope(models.AlertLeftZone, 1, 10), base.Add(time.Minute), 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Suppressed(ctx, ZoneScope(models.AlertLeftZone, 1, 11), base.Add(time.Minute), 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestSuppressed_WeatherTextMatch(t *testing.T) {
	store := testutil.NewMemoryAlertStore(
		alert(models.AlertContextualWeather, 1, nil, "Weather Alert for here: Flood Warning. Move up.", base),
		alert(models.AlertContextualWeather, 1, nil, "Weather Update: Rain likely near here", base),
	)
	p := NewPolicy(store, zap.NewNop())
	ctx := context.Background()
	at := base.Add(time.Hour)

	got, err := p.Suppressed(ctx, WeatherScope(1, "flood warning", MatchContains), at, 6*time.Hour)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Suppressed(ctx, WeatherScope(1, "Heat Advisory", MatchContains), at, 6*time.Hour)
	require.NoError(t, err)
	assert.False(t, got, "distinct weather events must not collapse")

	got, err = p.Suppressed(ctx, WeatherScope(1, "Weather Update: Rain", MatchPrefix), at, 3*time.Hour)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Suppressed(ctx, WeatherScope(1, "weather update: rain", MatchPrefix), at, 3*time.Hour)
	require.NoError(t, err)
	assert.False(t, got, "prefix match is case-sensitive")
}

func TestSuppressed_FutureAlertCountsAsRecent(t *testing.T) {
	store := testutil.NewMemoryAlertStore(alert(models.AlertLowBattery, 1, nil, "x", base.Add(time.Hour)))
	p := NewPolicy(store, zap.NewNop())

	got, err := p.Suppressed(context.Background(), SubjectScope(models.AlertLowBattery, 1), base, time.Hour)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestLastZoneTransition(t *testing.T) {
	store := testutil.NewMemoryAlertStore(
		alert(models.AlertEnteredZone, 1, ptr(10), "in", base),
		alert(models.AlertLeftZone, 1, ptr(10), "out", base.Add(time.Hour)),
		alert(models.AlertEnteredZone, 1, ptr(11), "other place", base.Add(2*time.Hour)),
	)
	p := NewPolicy(store, zap.NewNop())

	last, err := p.LastZoneTransition(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, models.AlertLeftZone, last.Kind)

	last, err = p.LastZoneTransition(context.Background(), 1, 12)
	require.NoError(t, err)
	assert.Nil(t, last)
}

// indexedHistory answers transition lookups directly and fails any history scan
type indexedHistory struct {
	failingHistory
	last *models.AlertEvent
}

func (h indexedHistory) LastZoneTransition(_ context.Context, subjectID, placeID int64) (*models.AlertEvent, error) {
	if h.last == nil || h.last.SubjectID != subjectID || *h.last.PlaceID != placeID {
		return nil, nil
	}
	return h.last, nil
}

func TestLastZoneTransition_UsesDirectLookup(t *testing.T) {
	left := alert(models.AlertLeftZone, 1, ptr(10), "out", base)
	p := NewPolicy(indexedHistory{last: &left}, zap.NewNop())

	last, err := p.LastZoneTransition(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, left.ID, last.ID)

	last, err = p.LastZoneTransition(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.Nil(t, last)
}

type failingHistory struct{}

func (failingHistory) RecentAlerts(context.Context, int64, models.AlertKind, time.Time) ([]models.AlertEvent, error) {
	return nil, errors.New("db down")
}

func TestSuppressed_HistoryError(t *testing.T) {
	p := NewPolicy(failingHistory{}, zap.NewNop())
	_, err := p.Suppressed(context.Background(), SubjectScope(models.AlertSOS, 1), base, time.Hour)
	assert.ErrorContains(t, err, "db down")

	_, err = p.LastZoneTransition(context.Background(), 1, 1)
	assert.Error(t, err)
}
