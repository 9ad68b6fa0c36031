package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mauzenfan/safety-backend-go/internal/database"
	"github.com/mauzenfan/safety-backend-go/internal/models"
)

const routineColumns = `id, subject_id, name, start_location_name, start_lat, start_lon,
	end_location_name, end_lat, end_lon, typical_days, window_start_min_s, window_start_max_s,
	route_path_geojson, confidence_score, is_active, last_calculated_at`

// RoutineRepository handles database operations for learned routines
type RoutineRepository struct {
	db *sql.DB
}

// NewRoutineRepository creates a new routine repository
func NewRoutineRepository(db *sql.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

// UpsertRoutine inserts or updates the routine keyed by (subject_id, name).
// Created reports whether a new row was inserted.
func (r *RoutineRepository) UpsertRoutine(ctx context.Context, routine *models.LearnedRoutine) (models.RoutineUpsert, error) {
	var result models.RoutineUpsert

	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM learned_routines WHERE subject_id = ? AND name = ?`,
			routine.SubjectID, routine.Name).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			result.Created = true
		case err != nil:
			return fmt.Errorf("failed to look up routine: %w", err)
		}

		var id int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO learned_routines (subject_id, name, start_location_name, start_lat, start_lon,
				end_location_name, end_lat, end_lon, typical_days, window_start_min_s, window_start_max_s,
				route_path_geojson, confidence_score, is_active, last_calculated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(subject_id, name) DO UPDATE SET
				start_location_name = excluded.start_location_name,
				start_lat = excluded.start_lat,
				start_lon = excluded.start_lon,
				end_location_name = excluded.end_location_name,
				end_lat = excluded.end_lat,
				end_lon = excluded.end_lon,
				typical_days = excluded.typical_days,
				window_start_min_s = excluded.window_start_min_s,
				window_start_max_s = excluded.window_start_max_s,
				route_path_geojson = excluded.route_path_geojson,
				confidence_score = excluded.confidence_score,
				is_active = excluded.is_active,
				last_calculated_at = excluded.last_calculated_at
			RETURNING id`,
			routine.SubjectID, routine.Name,
			routine.StartLocationName, routine.StartApprox.Lat, routine.StartApprox.Lon,
			routine.EndLocationName, routine.EndApprox.Lat, routine.EndApprox.Lon,
			encodeDays(routine.TypicalDays), routine.WindowStartMinSeconds, routine.WindowStartMaxSeconds,
			routine.RoutePathGeoJSON, routine.ConfidenceScore, boolToInt(routine.IsActive),
			toMillis(routine.LastCalculatedAt),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to upsert routine: %w", err)
		}

		routine.ID = id
		return nil
	})
	if err != nil {
		return models.RoutineUpsert{}, err
	}

	result.Routine = routine
	return result, nil
}

// GetActiveRoutines retrieves the active routines of a subject
func (r *RoutineRepository) GetActiveRoutines(ctx context.Context, subjectID int64) ([]models.LearnedRoutine, error) {
	return r.query(ctx, `SELECT `+routineColumns+` FROM learned_routines WHERE subject_id = ? AND is_active = 1 ORDER BY id`, subjectID)
}

// ListRoutines retrieves every routine of a subject, active or not
func (r *RoutineRepository) ListRoutines(ctx context.Context, subjectID int64) ([]models.LearnedRoutine, error) {
	return r.query(ctx, `SELECT `+routineColumns+` FROM learned_routines WHERE subject_id = ? ORDER BY id`, subjectID)
}

// SetActive marks a routine active or inactive
func (r *RoutineRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE learned_routines SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("failed to update routine: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update routine: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("routine %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *RoutineRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.LearnedRoutine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query routines: %w", err)
	}
	defer rows.Close()

	var routines []models.LearnedRoutine
	for rows.Next() {
		var (
			rt         models.LearnedRoutine
			days       string
			active     int
			calculated int64
		)
		err := rows.Scan(
			&rt.ID, &rt.SubjectID, &rt.Name,
			&rt.StartLocationName, &rt.StartApprox.Lat, &rt.StartApprox.Lon,
			&rt.EndLocationName, &rt.EndApprox.Lat, &rt.EndApprox.Lon,
			&days, &rt.WindowStartMinSeconds, &rt.WindowStartMaxSeconds,
			&rt.RoutePathGeoJSON, &rt.ConfidenceScore, &active, &calculated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		rt.TypicalDays, err = decodeDays(days)
		if err != nil {
			return nil, fmt.Errorf("routine %d: %w", rt.ID, err)
		}
		rt.IsActive = active == 1
		rt.LastCalculatedAt = fromMillis(calculated)
		routines = append(routines, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routines: %w", err)
	}
	return routines, nil
}

// encodeDays stores weekdays as "0,1,2"
func encodeDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid typical day %q", p)
		}
		days = append(days, d)
	}
	return days, nil
}
