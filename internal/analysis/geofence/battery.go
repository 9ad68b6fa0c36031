package geofence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/cooldown"
	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// Low battery defaults
const (
	DefaultLowBatteryThreshold = 20 // percent, alerts fire strictly below
	DefaultLowBatteryCooldown  = time.Hour
)

// BatteryMonitor emits LOW_BATTERY alerts, at most one per subject per cooldown window
type BatteryMonitor struct {
	policy    *cooldown.Policy
	threshold int
	cooldown  time.Duration
	logger    *zap.Logger
}

// NewBatteryMonitor creates a low battery monitor
func NewBatteryMonitor(policy *cooldown.Policy, threshold int, window time.Duration, logger *zap.Logger) *BatteryMonitor {
	if threshold <= 0 {
		threshold = DefaultLowBatteryThreshold
	}
	if window <= 0 {
		window = DefaultLowBatteryCooldown
	}
	return &BatteryMonitor{policy: policy, threshold: threshold, cooldown: window, logger: logger}
}

// Evaluate returns a LOW_BATTERY alert when level is below the threshold and no equivalent alert
// was emitted within the cooldown window before at. Nil means nothing to emit.
func (b *BatteryMonitor) Evaluate(ctx context.Context, subject models.Subject, level int, at time.Time) (*models.AlertEvent, error) {
	if level < 0 || level > 100 {
		return nil, fmt.Errorf("battery level %d out of range", level)
	}
	if level >= b.threshold {
		return nil, nil
	}

	suppressed, err := b.policy.Suppressed(ctx, cooldown.SubjectScope(models.AlertLowBattery, subject.ID), at, b.cooldown)
	if err != nil {
		return nil, err
	}
	if suppressed {
		b.logger.Info("[BatteryMonitor] LOW_BATTERY alert on cooldown", zap.Int64("subject_id", subject.ID))
		return nil, nil
	}

	ev := models.NewAlertEvent(models.AlertLowBattery, subject, nil,
		fmt.Sprintf("%s's device battery is low (%d%%).", subject.Name, level), at)
	return &ev, nil
}
