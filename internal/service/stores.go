package service

import (
	"context"
	"time"

	"github.com/mauzenfan/safety-backend-go/internal/models"
)

// SubjectStore is the subject persistence used by services
type SubjectStore interface {
	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
	GetActiveSubjects(ctx context.Context) ([]models.Subject, error)
	UpdateBattery(ctx context.Context, id int64, level *int, seenAt time.Time) error
}

// PlaceStore is the place persistence used by services
type PlaceStore interface {
	GetActivePlaces(ctx context.Context, ownerID int64) ([]models.Place, error)
	FindActivePlaceByName(ctx context.Context, ownerID int64, name string) (*models.Place, error)
}

// LocationStore is the location point persistence used by services
type LocationStore interface {
	Insert(ctx context.Context, p *models.LocationPoint) error
	GetLocationPoints(ctx context.Context, subjectID int64, since, until time.Time) ([]models.LocationPoint, error)
	LatestPoint(ctx context.Context, subjectID int64) (*models.LocationPoint, error)
}

// RoutineStore is the learned routine persistence used by services
type RoutineStore interface {
	UpsertRoutine(ctx context.Context, routine *models.LearnedRoutine) (models.RoutineUpsert, error)
	GetActiveRoutines(ctx context.Context, subjectID int64) ([]models.LearnedRoutine, error)
	ListRoutines(ctx context.Context, subjectID int64) ([]models.LearnedRoutine, error)
}
