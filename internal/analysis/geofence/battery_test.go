package geofence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/cooldown"
	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/testutil"
)

func TestBatteryMonitor_CooldownSuppression(t *testing.T) {
	store := testutil.NewMemoryAlertStore()
	b := NewBatteryMonitor(cooldown.NewPolicy(store, zap.NewNop()), 20, time.Hour, zap.NewNop())
	ctx := context.Background()

	emit := func(level int, at time.Time) {
		ev, err := b.Evaluate(ctx, subject, level, at)
		require.NoError(t, err)
		if ev != nil {
			require.NoError(t, store.Dispatch(ctx, []models.AlertEvent{*ev}))
		}
	}

	emit(15, t0)
	emit(12, t0.Add(20*time.Minute))
	assert.Equal(t, 1, store.CountKind(models.AlertLowBattery))

	emit(10, t0.Add(61*time.Minute))
	assert.Equal(t, 2, store.CountKind(models.AlertLowBattery))
}

func TestBatteryMonitor_AboveThreshold(t *testing.T) {
	store := testutil.NewMemoryAlertStore()
	b := NewBatteryMonitor(cooldown.NewPolicy(store, zap.NewNop()), 0, 0, zap.NewNop())

	ev, err := b.Evaluate(context.Background(), subject, DefaultLowBatteryThreshold, t0)
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = b.Evaluate(context.Background(), subject, 15, t0)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "Ana's device battery is low (15%).", ev.Message)
	assert.Nil(t, ev.PlaceID)
}

func TestBatteryMonitor_InvalidLevel(t *testing.T) {
	b := NewBatteryMonitor(cooldown.NewPolicy(testutil.NewMemoryAlertStore(), zap.NewNop()), 20, time.Hour, zap.NewNop())
	_, err := b.Evaluate(context.Background(), subject, 140, t0)
	assert.Error(t, err)
}
