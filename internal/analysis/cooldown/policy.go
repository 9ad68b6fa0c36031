// Package cooldown decides whether a new alert would duplicate one already emitted inside a
// lookback window. State always comes from the alert history store, never from memory, so the
// decision holds across restarts and concurrent workers.
package cooldown

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// AlertHistory is the read side of the alert store.
// RecentAlerts returns alerts of kind for subject with timestamp >= since, newest first.
type AlertHistory interface {
	RecentAlerts(ctx context.Context, subjectID int64, kind models.AlertKind, since time.Time) ([]models.AlertEvent, error)
}

// TransitionHistory is implemented by stores that can look up the newest zone transition
// directly instead of scanning the full ENTERED_ZONE / LEFT_ZONE history.
type TransitionHistory interface {
	LastZoneTransition(ctx context.Context, subjectID, placeID int64) (*models.AlertEvent, error)
}

// MatchMode selects how Scope.Text is compared against prior alert messages
type MatchMode int

const (
	// MatchNone ignores the message text
	MatchNone MatchMode = iota
	// MatchContains matches when the prior message contains Text (case-insensitive)
	MatchContains
	// MatchPrefix matches when the prior message starts with Text
	MatchPrefix
)

// Scope identifies which prior alerts count as equivalent
type Scope struct {
	Kind      models.AlertKind
	SubjectID int64
	PlaceID   *int64 // zone alerts only
	Text      string
	Match     MatchMode
}

// ZoneScope is the (subject, place) scope of a zone transition alert
func ZoneScope(kind models.AlertKind, subjectID, placeID int64) Scope {
	return Scope{Kind: kind, SubjectID: subjectID, PlaceID: &placeID}
}

// SubjectScope is the per-subject scope used by low battery and unusual route alerts
func SubjectScope(kind models.AlertKind, subjectID int64) Scope {
	return Scope{Kind: kind, SubjectID: subjectID}
}

// WeatherScope scopes weather alerts by subject and message text
func WeatherScope(subjectID int64, text string, match MatchMode) Scope {
	return Scope{Kind: models.AlertContextualWeather, SubjectID: subjectID, Text: text, Match: match}
}

// Policy is the shared alert rate limiter
type Policy struct {
	history AlertHistory
	logger  *zap.Logger
}

// NewPolicy creates a cooldown policy backed by history
func NewPolicy(history AlertHistory, logger *zap.Logger) *Policy {
	return &Policy{history: history, logger: logger}
}

// Suppressed reports whether an alert equivalent to scope exists in [at-window, at].
func (p *Policy) Suppressed(ctx context.Context, scope Scope, at time.Time, window time.Duration) (bool, error) {
	prior, err := p.history.RecentAlerts(ctx, scope.SubjectID, scope.Kind, at.Add(-window))
	if err != nil {
		return false, fmt.Errorf("failed to query recent %s alerts: %w", scope.Kind, err)
	}

	for _, a := range prior {
		if !scope.matches(a) {
			continue
		}
		p.logger.Debug("[Cooldown] alert suppressed",
			zap.String("kind", string(scope.Kind)),
			zap.Int64("subject_id", scope.SubjectID),
			zap.String("prior_alert_id", a.ID),
			zap.Time("prior_at", a.Timestamp),
		)
		return true, nil
	}
	return false, nil
}

// LastZoneTransition returns the newest ENTERED_ZONE or LEFT_ZONE alert for (subject, place),
// or nil when there is none.
func (p *Policy) LastZoneTransition(ctx context.Context, subjectID, placeID int64) (*models.AlertEvent, error) {
	if th, ok := p.history.(TransitionHistory); ok {
		last, err := th.LastZoneTransition(ctx, subjectID, placeID)
		if err != nil {
			return nil, fmt.Errorf("failed to query last zone transition: %w", err)
		}
		return last, nil
	}

	var latest *models.AlertEvent
	for _, kind := range []models.AlertKind{models.AlertEnteredZone, models.AlertLeftZone} {
		prior, err := p.history.RecentAlerts(ctx, subjectID, kind, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("failed to query %s history: %w", kind, err)
		}
		for i := range prior {
			a := prior[i]
			if a.PlaceID == nil || *a.PlaceID != placeID {
				continue
			}
			if latest == nil || a.Timestamp.After(latest.Timestamp) {
				latest = &a
			}
		}
	}
	return latest, nil
}

func (s Scope) matches(a models.AlertEvent) bool {
	if a.Kind != s.Kind || a.SubjectID != s.SubjectID {
		return false
	}
	if s.PlaceID != nil && (a.PlaceID == nil || *a.PlaceID != *s.PlaceID) {
		return false
	}

	switch s.Match {
	case MatchContains:
		return strings.Contains(strings.ToLower(a.Message), strings.ToLower(s.Text))
	case MatchPrefix:
		return strings.HasPrefix(a.Message, s.Text)
	}
	return true
}
