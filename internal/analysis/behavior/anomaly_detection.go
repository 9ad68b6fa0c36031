package behavior

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/cooldown"
	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// Anomaly detection defaults
const (
	DefaultTripMatchProximityMeters = 200.0
	DefaultPathDeviationMeters      = 500.0
	DefaultTimeDeviation            = 30 * time.Minute
	DefaultUnusualRouteCooldown     = time.Hour
)

// DetectorConfig holds the anomaly detector thresholds
type DetectorConfig struct {
	MinTripPoints        int
	MatchProximityMeters float64
	PathDeviationMeters  float64
	TimeDeviation        time.Duration
	Cooldown             time.Duration
}

// DefaultDetectorConfig returns the stock thresholds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinTripPoints:        DefaultMinTripPoints,
		MatchProximityMeters: DefaultTripMatchProximityMeters,
		PathDeviationMeters:  DefaultPathDeviationMeters,
		TimeDeviation:        DefaultTimeDeviation,
		Cooldown:             DefaultUnusualRouteCooldown,
	}
}

// Finding describes the deviations of a trip from one routine
type Finding struct {
	Routine models.LearnedRoutine
	Reasons []string

	PathDeviationMeters float64 // average nearest-vertex distance, 0 when not checked
	PathDeviated        bool
	TimeDeviated        bool
}

// Detector matches a new trip against learned routines
type Detector struct {
	cfg    DetectorConfig
	policy *cooldown.Policy
	logger *zap.Logger
}

// NewDetector creates an anomaly detector. Zero config fields fall back to defaults.
func NewDetector(cfg DetectorConfig, policy *cooldown.Policy, logger *zap.Logger) *Detector {
	def := DefaultDetectorConfig()
	if cfg.MinTripPoints <= 0 {
		cfg.MinTripPoints = def.MinTripPoints
	}
	if cfg.MatchProximityMeters <= 0 {
		cfg.MatchProximityMeters = def.MatchProximityMeters
	}
	if cfg.PathDeviationMeters <= 0 {
		cfg.PathDeviationMeters = def.PathDeviationMeters
	}
	if cfg.TimeDeviation <= 0 {
		cfg.TimeDeviation = def.TimeDeviation
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &Detector{cfg: cfg, policy: policy, logger: logger}
}

// Detect returns the first finding among candidate routines, or nil when the trip matches
// no routine or matches without deviating. Routines with an undecodable path are skipped.
func (d *Detector) Detect(trip models.Trip, routines []models.LearnedRoutine) (*Finding, error) {
	if len(trip.Points) < d.cfg.MinTripPoints {
		return nil, fmt.Errorf("%w: trip has %d points, need %d", ErrInsufficientData, len(trip.Points), d.cfg.MinTripPoints)
	}
	tripPath := trip.Path()
	for _, c := range tripPath {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	first, last := tripPath[0], tripPath[len(tripPath)-1]
	weekday := trip.Weekday()
	startSec := trip.StartOfDaySeconds()

	for _, r := range routines {
		if !r.IsActive {
			continue
		}

		ok, err := d.isCandidate(r, first, last, weekday)
		if err != nil {
			d.logger.Warn("[AnomalyDetector] skipping routine with invalid endpoints",
				zap.Int64("routine_id", r.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		routePath, err := r.RoutePath()
		if err != nil {
			if errors.Is(err, models.ErrCorruptRoutinePath) {
				d.logger.Warn("[AnomalyDetector] skipping routine with corrupt path",
					zap.Int64("routine_id", r.ID), zap.String("routine", r.Name), zap.Error(err))
				continue
			}
			return nil, err
		}

		finding := Finding{Routine: r}

		if len(routePath) > 0 {
			avg, err := spatial.AverageDistanceToPath(tripPath, routePath)
			if err != nil {
				return nil, err
			}
			finding.PathDeviationMeters = avg
			if avg > d.cfg.PathDeviationMeters {
				finding.PathDeviated = true
				finding.Reasons = append(finding.Reasons,
					fmt.Sprintf("Path deviation (avg %.0fm) from '%s'.", avg, r.Name))
			}
		}

		tol := int(d.cfg.TimeDeviation / time.Second)
		if startSec-r.WindowStartMaxSeconds > tol || r.WindowStartMinSeconds-startSec > tol {
			finding.TimeDeviated = true
			finding.Reasons = append(finding.Reasons,
				fmt.Sprintf("Start time %s outside typical window (%s-%s) for '%s'.",
					models.FormatClock(startSec),
					models.FormatClock(r.WindowStartMinSeconds),
					models.FormatClock(r.WindowStartMaxSeconds),
					r.Name))
		}

		if len(finding.Reasons) > 0 {
			return &finding, nil
		}
	}
	return nil, nil
}

func (d *Detector) isCandidate(r models.LearnedRoutine, first, last spatial.Coordinate, weekday int) (bool, error) {
	if !r.HasTypicalDay(weekday) {
		return false, nil
	}
	nearStart, err := spatial.Within(first, r.StartApprox, d.cfg.MatchProximityMeters)
	if err != nil || !nearStart {
		return false, err
	}
	return spatial.Within(last, r.EndApprox, d.cfg.MatchProximityMeters)
}

// Analyze runs Detect and turns a finding into one UNUSUAL_ROUTE alert, subject to the
// per-subject cooldown. Nil means nothing to emit.
func (d *Detector) Analyze(ctx context.Context, subject models.Subject, trip models.Trip, routines []models.LearnedRoutine, at time.Time) (*models.AlertEvent, error) {
	finding, err := d.Detect(trip, routines)
	if err != nil {
		return nil, err
	}
	if finding == nil {
		d.logger.Debug("[AnomalyDetector] trip is consistent with known routines",
			zap.Int64("subject_id", subject.ID), zap.Int("routines", len(routines)))
		return nil, nil
	}

	suppressed, err := d.policy.Suppressed(ctx, cooldown.SubjectScope(models.AlertUnusualRoute, subject.ID), at, d.cfg.Cooldown)
	if err != nil {
		return nil, err
	}
	if suppressed {
		d.logger.Info("[AnomalyDetector] UNUSUAL_ROUTE alert on cooldown",
			zap.Int64("subject_id", subject.ID), zap.String("routine", finding.Routine.Name))
		return nil, nil
	}

	msg := fmt.Sprintf("Unusual activity detected for %s regarding routine '%s': %s",
		subject.Name, finding.Routine.Name, strings.Join(finding.Reasons, " | "))
	ev := models.NewAlertEvent(models.AlertUnusualRoute, subject, nil, msg, at)

	d.logger.Info("[AnomalyDetector] unusual route",
		zap.Int64("subject_id", subject.ID),
		zap.String("routine", finding.Routine.Name),
		zap.Bool("path_deviated", finding.PathDeviated),
		zap.Bool("time_deviated", finding.TimeDeviated),
	)
	return &ev, nil
}
