package service

import (
	"context"

	"github.com/mauzenfan/safety-backend-go/internal/dispatch"
	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// AlertLister is the alert query used by AlertService
type AlertLister interface {
	List(ctx context.Context, ownerID int64, filter models.AlertFilter) ([]models.AlertEvent, int64, error)
}

// AlertService handles alert history queries
type AlertService struct {
	alerts AlertLister
	recent *dispatch.RedisPublisher // nil when Redis is disabled
}

// NewAlertService creates a new alert service. recent may be nil.
func NewAlertService(alerts AlertLister, recent *dispatch.RedisPublisher) *AlertService {
	return &AlertService{alerts: alerts, recent: recent}
}

// List retrieves the stored alerts of an owner with filtering and pagination
func (s *AlertService) List(ctx context.Context, ownerID int64, filter models.AlertFilter) ([]models.AlertEvent, int64, error) {
	return s.alerts.List(ctx, ownerID, filter)
}

// Recent returns the latest pushed notifications of an owner. ok is false when no push channel is configured.
func (s *AlertService) Recent(ctx context.Context, ownerID int64, limit int) ([]dispatch.Notification, bool, error) {
	if s.recent == nil {
		return nil, false, nil
	}
	n, err := s.recent.Recent(ctx, ownerID, limit)
	return n, true, err
}
