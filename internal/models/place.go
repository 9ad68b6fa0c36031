package models

import (
	"time"

	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

// Place is a named circular safe zone owned by a guardian account (e.g. "Home", "Lekol")
type Place struct {
	ID           int64              `json:"id" db:"id"`
	OwnerID      int64              `json:"owner_id" db:"owner_id"`
	Name         string             `json:"name" db:"name"`
	Center       spatial.Coordinate `json:"center"`
	RadiusMeters float64            `json:"radius_meters" db:"radius_m"`
	IsActive     bool               `json:"is_active" db:"is_active"`
}

// ZoneMembership is the membership of a subject in a place, reconstructed from the most
// recent ENTERED_ZONE/LEFT_ZONE alert. It is never stored.
type ZoneMembership struct {
	Inside           bool
	LastTransitionAt *time.Time
}
