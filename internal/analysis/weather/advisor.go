// Package weather turns forecasts around a subject's last known position into
// CONTEXTUAL_WEATHER alerts.
package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/cooldown"
	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// Weather advisory defaults
const (
	DefaultCooldown                 = 3 * time.Hour
	DefaultMinPrecipitationProb     = 0.6
	DefaultForecastHorizonHours     = 3
	DefaultRecentLocationMaxAge     = time.Hour
	nationalAlertCooldownMultiplier = 2
)

// NationalAlert is an official weather warning for an area
type NationalAlert struct {
	SenderName  string
	Event       string
	Description string
	Start       time.Time
	End         time.Time
}

// HourlyForecast is one forecast hour
type HourlyForecast struct {
	Time                     time.Time
	PrecipitationProbability float64 // 0..1
	Status                   string  // e.g. "light rain"
}

// Forecast is what a ForecastProvider returns for one position
type Forecast struct {
	Alerts []NationalAlert
	Hourly []HourlyForecast
}

// ForecastProvider fetches weather around a coordinate
type ForecastProvider interface {
	Forecast(ctx context.Context, at spatial.Coordinate) (*Forecast, error)
}

// Config holds the advisor thresholds
type Config struct {
	Cooldown             time.Duration
	MinPrecipitationProb float64
	HorizonHours         int
	RecentLocationMaxAge time.Duration
}

// Advisor builds CONTEXTUAL_WEATHER alerts
type Advisor struct {
	provider ForecastProvider
	policy   *cooldown.Policy
	cfg      Config
	logger   *zap.Logger
}

// NewAdvisor creates a weather advisor. Zero config fields fall back to defaults.
func NewAdvisor(provider ForecastProvider, policy *cooldown.Policy, cfg Config, logger *zap.Logger) *Advisor {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.MinPrecipitationProb <= 0 {
		cfg.MinPrecipitationProb = DefaultMinPrecipitationProb
	}
	if cfg.HorizonHours <= 0 {
		cfg.HorizonHours = DefaultForecastHorizonHours
	}
	if cfg.RecentLocationMaxAge <= 0 {
		cfg.RecentLocationMaxAge = DefaultRecentLocationMaxAge
	}
	return &Advisor{provider: provider, policy: policy, cfg: cfg, logger: logger}
}

// Check returns the weather alerts to emit for subject at now. latest is the subject's most
// recent location point, or nil. Subjects not seen recently and forecast failures are skipped.
func (a *Advisor) Check(ctx context.Context, subject models.Subject, latest *models.LocationPoint, now time.Time) ([]models.AlertEvent, error) {
	if subject.LastSeenAt == nil || now.Sub(*subject.LastSeenAt) >= a.cfg.RecentLocationMaxAge {
		a.logger.Info("[WeatherAdvisor] no recent location, skipping", zap.Int64("subject_id", subject.ID))
		return nil, nil
	}
	if latest == nil {
		a.logger.Info("[WeatherAdvisor] subject seen but has no location points, skipping", zap.Int64("subject_id", subject.ID))
		return nil, nil
	}
	if err := latest.Position.Validate(); err != nil {
		return nil, err
	}

	forecast, err := a.provider.Forecast(ctx, latest.Position)
	if err != nil || forecast == nil {
		a.logger.Warn("[WeatherAdvisor] could not retrieve forecast, skipping",
			zap.Int64("subject_id", subject.ID), zap.Error(err))
		return nil, nil
	}

	locationName := fmt.Sprintf("%s's current location (%.2f, %.2f)", subject.Name, latest.Position.Lat, latest.Position.Lon)

	var out []models.AlertEvent
	national, err := a.nationalAlerts(ctx, subject, forecast.Alerts, locationName, now)
	if err != nil {
		return nil, err
	}
	out = append(out, national...)

	precip, err := a.precipitationAlert(ctx, subject, forecast.Hourly, locationName, now)
	if err != nil {
		return nil, err
	}
	if precip != nil {
		out = append(out, *precip)
	}
	return out, nil
}

func (a *Advisor) nationalAlerts(ctx context.Context, subject models.Subject, alerts []NationalAlert, locationName string, now time.Time) ([]models.AlertEvent, error) {
	var out []models.AlertEvent
	seen := make(map[string]bool)
	window := a.cfg.Cooldown * nationalAlertCooldownMultiplier

	for _, na := range alerts {
		event := na.Event
		if event == "" {
			event = "Weather Alert"
		}
		desc := na.Description
		if desc == "" {
			desc = "Important weather information."
		}
		if seen[strings.ToLower(event)] {
			continue
		}

		suppressed, err := a.policy.Suppressed(ctx, cooldown.WeatherScope(subject.ID, event, cooldown.MatchContains), now, window)
		if err != nil {
			return nil, err
		}
		if suppressed {
			continue
		}

		seen[strings.ToLower(event)] = true
		msg := fmt.Sprintf("Weather Alert for %s: %s. %s", locationName, event, desc)
		out = append(out, models.NewAlertEvent(models.AlertContextualWeather, subject, nil, msg, now))
		a.logger.Info("[WeatherAdvisor] national weather alert",
			zap.Int64("subject_id", subject.ID), zap.String("event", event))
	}
	return out, nil
}

// precipitationAlert emits at most one alert for the first likely-precipitation hour in the horizon
// that is not on cooldown.
func (a *Advisor) precipitationAlert(ctx context.Context, subject models.Subject, hourly []HourlyForecast, locationName string, now time.Time) (*models.AlertEvent, error) {
	if len(hourly) > a.cfg.HorizonHours {
		hourly = hourly[:a.cfg.HorizonHours]
	}

	for _, h := range hourly {
		if h.PrecipitationProbability < a.cfg.MinPrecipitationProb {
			continue
		}

		status := h.Status
		if status == "" {
			status = "precipitation"
		}
		lower := strings.ToLower(status)

		base := fmt.Sprintf("%s likely near %s around %s (Prob: %d%%).",
			capitalize(status), locationName, h.Time.UTC().Format("03:04 PM"), int(h.PrecipitationProbability*100))

		category, suggestion := "Weather Update", ""
		switch {
		case strings.Contains(lower, "rain"):
			suggestion = " Consider taking an umbrella!"
		case strings.Contains(lower, "snow"):
			suggestion = " Dress warmly!"
		case strings.Contains(lower, "thunderstorm"):
			suggestion = " Stay safe and be aware of lightning."
			category = "Weather Alert"
		}
		prefix := category + ": " + base

		suppressed, err := a.policy.Suppressed(ctx, cooldown.WeatherScope(subject.ID, prefix, cooldown.MatchPrefix), now, a.cfg.Cooldown)
		if err != nil {
			return nil, err
		}
		if suppressed {
			continue
		}

		ev := models.NewAlertEvent(models.AlertContextualWeather, subject, nil, prefix+suggestion, now)
		a.logger.Info("[WeatherAdvisor] precipitation forecast alert",
			zap.Int64("subject_id", subject.ID), zap.String("status", status))
		return &ev, nil
	}
	return nil, nil
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
