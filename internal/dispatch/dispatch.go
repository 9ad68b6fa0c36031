// Package dispatch hands emitted alerts to persistence and real-time fan-out.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// Dispatcher accepts alert events produced by the analytics
type Dispatcher interface {
	Dispatch(ctx context.Context, events []models.AlertEvent) error
}

// AlertStore is the write side of the alert history
type AlertStore interface {
	Insert(ctx context.Context, events []models.AlertEvent) error
}

// StoreDispatcher persists events so later cooldown checks observe them
type StoreDispatcher struct {
	store AlertStore
}

// NewStoreDispatcher creates a persisting dispatcher
func NewStoreDispatcher(store AlertStore) *StoreDispatcher {
	return &StoreDispatcher{store: store}
}

// Dispatch persists events
func (d *StoreDispatcher) Dispatch(ctx context.Context, events []models.AlertEvent) error {
	if err := d.store.Insert(ctx, events); err != nil {
		return fmt.Errorf("failed to persist alerts: %w", err)
	}
	return nil
}

// Redis key layout
const (
	channelPrefix   = "alerts:"
	recentSuffix    = ":recent"
	recentListLimit = 100
	recentListTTL   = 7 * 24 * time.Hour
)

// ChannelName is the pub/sub channel for an owner's alerts
func ChannelName(ownerID int64) string {
	return fmt.Sprintf("%s%d", channelPrefix, ownerID)
}

// RecentKey is the capped list holding an owner's latest alerts
func RecentKey(ownerID int64) string {
	return ChannelName(ownerID) + recentSuffix
}

// Notification is the JSON payload published for each alert
type Notification struct {
	Type      string `json:"type"`
	AlertID   string `json:"alert_id"`
	Kind      string `json:"kind"`
	SubjectID int64  `json:"subject_id"`
	PlaceID   *int64 `json:"place_id,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewNotification builds the payload for ev
func NewNotification(ev models.AlertEvent) Notification {
	return Notification{
		Type:      "alert_notification",
		AlertID:   ev.ID,
		Kind:      string(ev.Kind),
		SubjectID: ev.SubjectID,
		PlaceID:   ev.PlaceID,
		Message:   ev.Message,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
	}
}

// RedisPublisher publishes alerts on per-owner channels and keeps a short recent list
// for clients that reconnect
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPublisher creates a redis fan-out dispatcher
func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

// Dispatch publishes every event
func (p *RedisPublisher) Dispatch(ctx context.Context, events []models.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, ev := range events {
			payload, err := json.Marshal(NewNotification(ev))
			if err != nil {
				return fmt.Errorf("failed to marshal alert %s: %w", ev.ID, err)
			}
			key := RecentKey(ev.OwnerID)
			pipe.Publish(ctx, ChannelName(ev.OwnerID), payload)
			pipe.LPush(ctx, key, payload)
			pipe.LTrim(ctx, key, 0, recentListLimit-1)
			pipe.Expire(ctx, key, recentListTTL)
		}
		return nil
	})
	if err != nil {
		p.logger.Error("Failed to publish alerts", zap.Int("count", len(events)), zap.Error(err))
		return fmt.Errorf("failed to publish alerts: %w", err)
	}

	p.logger.Debug("Alerts published", zap.Int("count", len(events)))
	return nil
}

// Recent returns up to limit of the owner's latest alert notifications, newest first
func (p *RedisPublisher) Recent(ctx context.Context, ownerID int64, limit int) ([]Notification, error) {
	if limit <= 0 || limit > recentListLimit {
		limit = recentListLimit
	}
	raw, err := p.client.LRange(ctx, RecentKey(ownerID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent alerts: %w", err)
	}

	out := make([]Notification, 0, len(raw))
	for _, r := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(r), &n); err != nil {
			p.logger.Warn("Skipping malformed notification", zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Chain runs dispatchers in order. The first one is authoritative: its error aborts the chain.
// Later failures are logged and do not fail the dispatch.
type Chain struct {
	primary   Dispatcher
	secondary []Dispatcher
	logger    *zap.Logger
}

// NewChain creates a chain with primary first and best-effort secondaries
func NewChain(logger *zap.Logger, primary Dispatcher, secondary ...Dispatcher) *Chain {
	return &Chain{primary: primary, secondary: secondary, logger: logger}
}

// Dispatch hands events to every dispatcher in the chain
func (c *Chain) Dispatch(ctx context.Context, events []models.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := c.primary.Dispatch(ctx, events); err != nil {
		return err
	}
	for _, d := range c.secondary {
		if err := d.Dispatch(ctx, events); err != nil {
			c.logger.Warn("Secondary alert dispatch failed", zap.Error(err))
		}
	}
	return nil
}
