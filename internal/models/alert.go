package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertKind enumerates alert event types
type AlertKind string

// AlertKind constants
const (
	AlertEnteredZone       AlertKind = "ENTERED_ZONE"
	AlertLeftZone          AlertKind = "LEFT_ZONE"
	AlertLowBattery        AlertKind = "LOW_BATTERY"
	AlertUnusualRoute      AlertKind = "UNUSUAL_ROUTE"
	AlertContextualWeather AlertKind = "CONTEXTUAL_WEATHER"
	AlertCheckIn           AlertKind = "CHECK_IN"
	AlertSOS               AlertKind = "SOS"
)

// Valid reports whether k is a known alert kind
func (k AlertKind) Valid() bool {
	switch k {
	case AlertEnteredZone, AlertLeftZone, AlertLowBattery, AlertUnusualRoute,
		AlertContextualWeather, AlertCheckIn, AlertSOS:
		return true
	}
	return false
}

// IsZoneTransition reports whether k is ENTERED_ZONE or LEFT_ZONE
func (k AlertKind) IsZoneTransition() bool {
	return k == AlertEnteredZone || k == AlertLeftZone
}

// AlertEvent is an alert produced by the analytics core. Persistence and delivery happen
// downstream in the dispatcher.
type AlertEvent struct {
	ID        string    `json:"id" db:"id"`
	Kind      AlertKind `json:"kind" db:"kind"`
	SubjectID int64     `json:"subject_id" db:"subject_id"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"` // recipient guardian
	PlaceID   *int64    `json:"place_id,omitempty" db:"place_id"`
	Message   string    `json:"message" db:"message"`
	Timestamp time.Time `json:"timestamp" db:"ts"`
}

// NewAlertEvent builds an alert with a fresh ID
func NewAlertEvent(kind AlertKind, subject Subject, placeID *int64, message string, at time.Time) AlertEvent {
	return AlertEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		SubjectID: subject.ID,
		OwnerID:   subject.OwnerID,
		PlaceID:   placeID,
		Message:   message,
		Timestamp: at.UTC(),
	}
}

// AlertFilter represents filter parameters for listing alerts
type AlertFilter struct {
	SubjectID int64  `form:"subjectId"`
	Kind      string `form:"kind"`
	Since     int64  `form:"since"` // Unix seconds
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// AlertsResponse represents a paginated response of alerts
type AlertsResponse struct {
	Data       []AlertEvent `json:"data"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}
