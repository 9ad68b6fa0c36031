package models

import "time"

// Subject is a tracked child. Owner is the guardian account that owns the places.
type Subject struct {
	ID           int64      `json:"id" db:"id"`
	OwnerID      int64      `json:"owner_id" db:"owner_id"`
	Name         string     `json:"name" db:"name"`
	DeviceID     string     `json:"device_id,omitempty" db:"device_id"`
	BatteryLevel *int       `json:"battery_level,omitempty" db:"battery_level"` // percent
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty" db:"last_seen_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
}
