package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/behavior"
	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/repository"
	"github.com/mauzenfan/safety-backend-go/internal/service"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
	"github.com/mauzenfan/safety-backend-go/pkg/response"
)

// pointRequest is one GPS fix in a request body
type pointRequest struct {
	Lat       *float64  `json:"lat" binding:"required"`
	Lon       *float64  `json:"lon" binding:"required"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
	Accuracy  *float64  `json:"accuracy"`
}

func toPoints(in []pointRequest) []models.LocationPoint {
	out := make([]models.LocationPoint, len(in))
	for i, p := range in {
		out[i] = models.LocationPoint{
			Position:  spatial.Coordinate{Lat: *p.Lat, Lon: *p.Lon},
			Timestamp: p.Timestamp.UTC(),
			Accuracy:  p.Accuracy,
		}
	}
	return out
}

// parseID reads a positive int64 path parameter, writing a 400 when it is invalid
func parseID(c *gin.Context, param, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// fail maps a service error to a status code. Unexpected errors are attached to the
// context for the request logger.
func fail(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidUpdate),
		errors.Is(err, spatial.ErrInvalidCoordinate),
		errors.Is(err, behavior.ErrInsufficientData):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrWeatherDisabled):
		response.Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Failed to "+action)
	}
}
