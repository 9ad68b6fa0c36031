// Package geofence evaluates per-update safety checks: safe zone transitions and low battery.
package geofence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/cooldown"
	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// DefaultZoneCooldown is the minimum spacing between two transition alerts for one zone
const DefaultZoneCooldown = 10 * time.Minute

// Monitor emits ENTERED_ZONE / LEFT_ZONE alerts. Membership is rebuilt from the alert history
// on every call, so replays and restarts cannot produce duplicate transitions.
type Monitor struct {
	policy   *cooldown.Policy
	cooldown time.Duration
	logger   *zap.Logger
}

// NewMonitor creates a safe zone monitor. A non-positive window falls back to DefaultZoneCooldown.
func NewMonitor(policy *cooldown.Policy, window time.Duration, logger *zap.Logger) *Monitor {
	if window <= 0 {
		window = DefaultZoneCooldown
	}
	return &Monitor{policy: policy, cooldown: window, logger: logger}
}

// Membership reconstructs the subject's membership in place from the newest transition alert
func (m *Monitor) Membership(ctx context.Context, subjectID int64, place models.Place) (models.ZoneMembership, error) {
	last, err := m.policy.LastZoneTransition(ctx, subjectID, place.ID)
	if err != nil {
		return models.ZoneMembership{}, err
	}
	if last == nil {
		return models.ZoneMembership{}, nil
	}
	ts := last.Timestamp
	return models.ZoneMembership{
		Inside:           last.Kind == models.AlertEnteredZone,
		LastTransitionAt: &ts,
	}, nil
}

// Evaluate checks point against every active place and returns the transition alerts to emit.
// Alerts are stamped with the point timestamp.
func (m *Monitor) Evaluate(ctx context.Context, subject models.Subject, places []models.Place, point models.LocationPoint) ([]models.AlertEvent, error) {
	if err := point.Position.Validate(); err != nil {
		return nil, err
	}

	var events []models.AlertEvent
	for _, place := range places {
		if !place.IsActive {
			continue
		}

		dist, err := spatial.Distance(point.Position, place.Center)
		if err != nil {
			m.logger.Warn("[SafeZoneMonitor] skipping place with invalid center",
				zap.Int64("place_id", place.ID),
				zap.Error(err),
			)
			continue
		}
		inside := dist <= place.RadiusMeters

		membership, err := m.Membership(ctx, subject.ID, place)
		if err != nil {
			return nil, fmt.Errorf("failed to load membership for place %d: %w", place.ID, err)
		}
		if inside == membership.Inside {
			continue
		}

		if membership.LastTransitionAt != nil && point.Timestamp.Sub(*membership.LastTransitionAt) <= m.cooldown {
			m.logger.Debug("[SafeZoneMonitor] transition on cooldown",
				zap.Int64("subject_id", subject.ID),
				zap.Int64("place_id", place.ID),
				zap.Bool("inside", inside),
			)
			continue
		}

		kind := models.AlertLeftZone
		msg := fmt.Sprintf("%s has left %s.", subject.Name, place.Name)
		if inside {
			kind = models.AlertEnteredZone
			msg = fmt.Sprintf("%s has entered %s.", subject.Name, place.Name)
		}

		placeID := place.ID
		events = append(events, models.NewAlertEvent(kind, subject, &placeID, msg, point.Timestamp))
		m.logger.Info("[SafeZoneMonitor] zone transition",
			zap.String("kind", string(kind)),
			zap.Int64("subject_id", subject.ID),
			zap.Int64("place_id", place.ID),
			zap.Float64("distance_m", dist),
		)
	}

	return events, nil
}
