package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

const placeColumns = `id, owner_id, name, lat, lon, radius_m, is_active`

// PlaceRepository handles database operations for safe zones and significant places
type PlaceRepository struct {
	db *sql.DB
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db *sql.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Create inserts a place and sets its ID
func (r *PlaceRepository) Create(ctx context.Context, p *models.Place) error {
	if err := p.Center.Validate(); err != nil {
		return err
	}
	if p.RadiusMeters <= 0 {
		return fmt.Errorf("place radius must be positive, got %v", p.RadiusMeters)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO places (owner_id, name, lat, lon, radius_m, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		p.OwnerID, p.Name, p.Center.Lat, p.Center.Lon, p.RadiusMeters, boolToInt(p.IsActive),
	)
	if err != nil {
		return fmt.Errorf("failed to insert place: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get place id: %w", err)
	}
	return nil
}

// GetActivePlaces retrieves the active places owned by ownerID
func (r *PlaceRepository) GetActivePlaces(ctx context.Context, ownerID int64) ([]models.Place, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+placeColumns+` FROM places WHERE owner_id = ? AND is_active = 1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query places: %w", err)
	}
	defer rows.Close()

	var places []models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate places: %w", err)
	}
	return places, nil
}

// FindActivePlaceByName looks up an active place by case-insensitive name.
// Returns nil, nil when the owner has no such place.
func (r *PlaceRepository) FindActivePlaceByName(ctx context.Context, ownerID int64, name string) (*models.Place, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+placeColumns+` FROM places
		WHERE owner_id = ? AND is_active = 1 AND lower(name) = lower(?)
		ORDER BY id LIMIT 1`, ownerID, name)

	p, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find place %q: %w", name, err)
	}
	return p, nil
}

func scanPlace(row rowScanner) (*models.Place, error) {
	var (
		p      models.Place
		active int
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Center.Lat, &p.Center.Lon, &p.RadiusMeters, &active); err != nil {
		return nil, err
	}
	p.IsActive = active == 1
	return &p, nil
}
