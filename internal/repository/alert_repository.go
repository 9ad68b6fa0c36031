package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mauzenfan/safety-backend-go/internal/database"
	"github.com/mauzenfan/safety-backend-go/internal/models"
)

const alertColumns = `id, subject_id, owner_id, kind, place_id, message, ts`

// AlertRepository handles database operations for alert events.
// It is the alert history the cooldown policy and zone monitor read from.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// RecentAlerts returns alerts of kind for subjectID with timestamp >= since, newest first
func (r *AlertRepository) RecentAlerts(ctx context.Context, subjectID int64, kind models.AlertKind, since time.Time) ([]models.AlertEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts
		WHERE subject_id = ? AND kind = ? AND ts >= ?
		ORDER BY ts DESC`,
		subjectID, string(kind), toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// LastZoneTransition returns the newest ENTERED_ZONE or LEFT_ZONE alert for (subjectID, placeID),
// or nil when the subject has never crossed that zone
func (r *AlertRepository) LastZoneTransition(ctx context.Context, subjectID, placeID int64) (*models.AlertEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts
		WHERE subject_id = ? AND place_id = ? AND kind IN (?, ?)
		ORDER BY ts DESC, rowid DESC
		LIMIT 1`,
		subjectID, placeID, string(models.AlertEnteredZone), string(models.AlertLeftZone))
	if err != nil {
		return nil, fmt.Errorf("failed to query last zone transition: %w", err)
	}
	defer rows.Close()

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return nil, nil
	}
	return &alerts[0], nil
}

// Insert stores alert events atomically
func (r *AlertRepository) Insert(ctx context.Context, events []models.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO alerts (id, subject_id, owner_id, kind, place_id, message, ts) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare alert insert: %w", err)
		}
		defer stmt.Close()

		for _, ev := range events {
			var placeID sql.NullInt64
			if ev.PlaceID != nil {
				placeID = sql.NullInt64{Int64: *ev.PlaceID, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, ev.ID, ev.SubjectID, ev.OwnerID, string(ev.Kind), placeID, ev.Message, toMillis(ev.Timestamp)); err != nil {
				return fmt.Errorf("failed to insert alert %s: %w", ev.ID, err)
			}
		}
		return nil
	})
}

// List retrieves alerts with filtering and pagination, newest first
func (r *AlertRepository) List(ctx context.Context, ownerID int64, filter models.AlertFilter) ([]models.AlertEvent, int64, error) {
	conditions := []string{"owner_id = ?"}
	args := []interface{}{ownerID}

	if filter.SubjectID > 0 {
		conditions = append(conditions, "subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Since > 0 {
		conditions = append(conditions, "ts >= ?")
		args = append(args, toMillis(time.Unix(filter.Since, 0)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts`+where+` ORDER BY ts DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// normalizePage clamps pagination parameters
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 500 {
		pageSize = 500
	}
	return page, pageSize
}

func scanAlerts(rows *sql.Rows) ([]models.AlertEvent, error) {
	var alerts []models.AlertEvent
	for rows.Next() {
		var (
			a       models.AlertEvent
			kind    string
			placeID sql.NullInt64
			ts      int64
		)
		if err := rows.Scan(&a.ID, &a.SubjectID, &a.OwnerID, &kind, &placeID, &a.Message, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Kind = models.AlertKind(kind)
		if placeID.Valid {
			id := placeID.Int64
			a.PlaceID = &id
		}
		a.Timestamp = fromMillis(ts)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}
