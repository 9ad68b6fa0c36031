package models

import "time"

// AnalysisRun records one batch pass over all active subjects
type AnalysisRun struct {
	ID string `json:"id" db:"id"`

	PassName string `json:"pass_name" db:"pass_name"` // learn_routines, detect_anomalies, weather_check
	Status   string `json:"status" db:"status"`       // running, completed, completed_with_errors, failed

	TotalSubjects     int `json:"total_subjects" db:"total_subjects"`
	ProcessedSubjects int `json:"processed_subjects" db:"processed_subjects"`
	FailedSubjects    int `json:"failed_subjects" db:"failed_subjects"`

	// JSON object subject_id -> error message
	FailuresJSON string `json:"failures_json,omitempty" db:"failures_json"`

	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Pass names
const (
	PassLearnRoutines   = "learn_routines"
	PassDetectAnomalies = "detect_anomalies"
	PassWeatherCheck    = "weather_check"
)

// RunStatus constants
const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
	RunStatusFailed              = "failed"
)
