package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mauzenfan/safety-backend-go/internal/service"
	"github.com/mauzenfan/safety-backend-go/pkg/response"
)

// LocationHandler handles HTTP requests for device location reports
type LocationHandler struct {
	service *service.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(service *service.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// LocationUpdateRequest represents the request body of a location report
type LocationUpdateRequest struct {
	Points       []pointRequest `json:"points" binding:"required,min=1,dive"`
	BatteryLevel *int           `json:"battery_level" binding:"omitempty,min=0,max=100"`
}

// PostLocations handles POST /api/v1/subjects/:id/locations
func (h *LocationHandler) PostLocations(c *gin.Context) {
	subjectID, ok := parseID(c, "id", "subject")
	if !ok {
		return
	}

	var req LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.service.ProcessLocationUpdate(c.Request.Context(), service.LocationUpdate{
		SubjectID:    subjectID,
		Points:       toPoints(req.Points),
		BatteryLevel: req.BatteryLevel,
	})
	if err != nil {
		fail(c, err, "process location update")
		return
	}

	response.Success(c, result)
}
