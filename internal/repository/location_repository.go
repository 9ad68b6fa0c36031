package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

const locationColumns = `id, subject_id, lat, lon, accuracy, ts`

// LocationRepository handles database operations for location points
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Insert stores a location point and sets its ID
func (r *LocationRepository) Insert(ctx context.Context, p *models.LocationPoint) error {
	if err := p.Position.Validate(); err != nil {
		return err
	}
	var accuracy sql.NullFloat64
	if p.Accuracy != nil {
		accuracy = sql.NullFloat64{Float64: *p.Accuracy, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO location_points (subject_id, lat, lon, accuracy, ts) VALUES (?, ?, ?, ?, ?)`,
		p.SubjectID, p.Position.Lat, p.Position.Lon, accuracy, toMillis(p.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert location point: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get location point id: %w", err)
	}
	return nil
}

// GetLocationPoints retrieves a subject's points in [since, until], oldest first
func (r *LocationRepository) GetLocationPoints(ctx context.Context, subjectID int64, since, until time.Time) ([]models.LocationPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM location_points
		WHERE subject_id = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC, id ASC`,
		subjectID, toMillis(since), toMillis(until))
	if err != nil {
		return nil, fmt.Errorf("failed to query location points: %w", err)
	}
	defer rows.Close()

	var points []models.LocationPoint
	for rows.Next() {
		p, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location point: %w", err)
		}
		points = append(points, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate location points: %w", err)
	}
	return points, nil
}

// LatestPoint returns the subject's most recent point, or nil when there is none
func (r *LocationRepository) LatestPoint(ctx context.Context, subjectID int64) (*models.LocationPoint, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM location_points WHERE subject_id = ? ORDER BY ts DESC, id DESC LIMIT 1`,
		subjectID)

	p, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest location point: %w", err)
	}
	return p, nil
}

func scanLocation(row rowScanner) (*models.LocationPoint, error) {
	var (
		p        models.LocationPoint
		accuracy sql.NullFloat64
		ts       int64
	)
	if err := row.Scan(&p.ID, &p.SubjectID, &p.Position.Lat, &p.Position.Lon, &accuracy, &ts); err != nil {
		return nil, err
	}
	if accuracy.Valid {
		a := accuracy.Float64
		p.Accuracy = &a
	}
	p.Timestamp = fromMillis(ts)
	return &p, nil
}
