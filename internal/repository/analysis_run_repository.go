package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

const runColumns = `id, pass_name, status, total_subjects, processed_subjects, failed_subjects,
	failures_json, started_at, completed_at`

// AnalysisRunRepository handles database operations for batch analysis runs
type AnalysisRunRepository struct {
	db *sql.DB
}

// NewAnalysisRunRepository creates a new analysis run repository
func NewAnalysisRunRepository(db *sql.DB) *AnalysisRunRepository {
	return &AnalysisRunRepository{db: db}
}

// Create inserts a new run
func (r *AnalysisRunRepository) Create(ctx context.Context, run *models.AnalysisRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, pass_name, status, total_subjects, processed_subjects, failed_subjects,
			failures_json, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PassName, run.Status, run.TotalSubjects, run.ProcessedSubjects, run.FailedSubjects,
		run.FailuresJSON, toMillis(run.StartedAt), nullMillis(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis run: %w", err)
	}
	return nil
}

// Update saves progress and completion of a run
func (r *AnalysisRunRepository) Update(ctx context.Context, run *models.AnalysisRun) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE analysis_runs SET status = ?, total_subjects = ?, processed_subjects = ?, failed_subjects = ?,
			failures_json = ?, completed_at = ?
		WHERE id = ?`,
		run.Status, run.TotalSubjects, run.ProcessedSubjects, run.FailedSubjects,
		run.FailuresJSON, nullMillis(run.CompletedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("analysis run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// Get retrieves a run by ID
func (r *AnalysisRunRepository) Get(ctx context.Context, id string) (*models.AnalysisRun, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}
	return run, nil
}

// ListRecent retrieves the latest runs, newest first
func (r *AnalysisRunRepository) ListRecent(ctx context.Context, limit int) ([]models.AnalysisRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+runColumns+` FROM analysis_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []models.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis runs: %w", err)
	}
	return runs, nil
}

func scanRun(row rowScanner) (*models.AnalysisRun, error) {
	var (
		run       models.AnalysisRun
		started   int64
		completed sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.PassName, &run.Status, &run.TotalSubjects, &run.ProcessedSubjects,
		&run.FailedSubjects, &run.FailuresJSON, &started, &completed)
	if err != nil {
		return nil, err
	}
	run.StartedAt = fromMillis(started)
	run.CompletedAt = timePtr(completed)
	return &run, nil
}
