package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

const subjectColumns = `id, owner_id, name, device_id, battery_level, last_seen_at, is_active`

// SubjectRepository handles database operations for tracked subjects
type SubjectRepository struct {
	db *sql.DB
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(db *sql.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Create inserts a subject and sets its ID
func (r *SubjectRepository) Create(ctx context.Context, s *models.Subject) error {
	var battery sql.NullInt64
	if s.BatteryLevel != nil {
		battery = sql.NullInt64{Int64: int64(*s.BatteryLevel), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subjects (owner_id, name, device_id, battery_level, last_seen_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.OwnerID, s.Name, s.DeviceID, battery, nullMillis(s.LastSeenAt), boolToInt(s.IsActive),
	)
	if err != nil {
		return fmt.Errorf("failed to insert subject: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get subject id: %w", err)
	}
	return nil
}

// GetSubject retrieves one subject by ID
func (r *SubjectRepository) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = ?`, id)
	s, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subject %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return s, nil
}

// GetActiveSubjects retrieves every active subject ordered by ID
func (r *SubjectRepository) GetActiveSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active subjects: %w", err)
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subjects: %w", err)
	}
	return subjects, nil
}

// UpdateBattery records the device battery level (when known) and last seen time
func (r *SubjectRepository) UpdateBattery(ctx context.Context, id int64, level *int, seenAt time.Time) error {
	var battery sql.NullInt64
	if level != nil {
		battery = sql.NullInt64{Int64: int64(*level), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE subjects SET battery_level = COALESCE(?, battery_level),
			last_seen_at = MAX(COALESCE(last_seen_at, 0), ?)
		WHERE id = ?`,
		battery, toMillis(seenAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update subject status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update subject status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subject %d: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubject(row rowScanner) (*models.Subject, error) {
	var (
		s        models.Subject
		battery  sql.NullInt64
		lastSeen sql.NullInt64
		active   int
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.DeviceID, &battery, &lastSeen, &active); err != nil {
		return nil, err
	}
	if battery.Valid {
		level := int(battery.Int64)
		s.BatteryLevel = &level
	}
	s.LastSeenAt = timePtr(lastSeen)
	s.IsActive = active == 1
	return &s, nil
}
