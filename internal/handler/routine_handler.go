package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mauzenfan/safety-backend-go/internal/service"
	"github.com/mauzenfan/safety-backend-go/pkg/response"
)

// RoutineHandler handles HTTP requests for learned routines and trip checks
type RoutineHandler struct {
	service *service.RoutineService
	now     func() time.Time
}

// NewRoutineHandler creates a new routine handler
func NewRoutineHandler(service *service.RoutineService) *RoutineHandler {
	return &RoutineHandler{service: service, now: time.Now}
}

// AnalyzeTripRequest represents the request body of an explicit trip check
type AnalyzeTripRequest struct {
	Points []pointRequest `json:"points" binding:"required,min=1,dive"`
}

// Learn handles POST /api/v1/subjects/:id/routines/learn
func (h *RoutineHandler) Learn(c *gin.Context) {
	subjectID, ok := parseID(c, "id", "subject")
	if !ok {
		return
	}

	result, err := h.service.LearnRoutines(c.Request.Context(), subjectID, h.now())
	if err != nil {
		fail(c, err, "learn routines")
		return
	}

	response.Success(c, result)
}

// ListRoutines handles GET /api/v1/subjects/:id/routines
func (h *RoutineHandler) ListRoutines(c *gin.Context) {
	subjectID, ok := parseID(c, "id", "subject")
	if !ok {
		return
	}

	routines, err := h.service.ListRoutines(c.Request.Context(), subjectID)
	if err != nil {
		fail(c, err, "list routines")
		return
	}

	response.Success(c, routines)
}

// AnalyzeTrip handles POST /api/v1/subjects/:id/trips/analyze
func (h *RoutineHandler) AnalyzeTrip(c *gin.Context) {
	subjectID, ok := parseID(c, "id", "subject")
	if !ok {
		return
	}

	var req AnalyzeTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.service.AnalyzeTrip(c.Request.Context(), subjectID, toPoints(req.Points))
	if err != nil {
		fail(c, err, "analyze trip")
		return
	}

	response.Success(c, result)
}

// AnalyzeRecentTrips handles POST /api/v1/subjects/:id/trips/analyze-recent
func (h *RoutineHandler) AnalyzeRecentTrips(c *gin.Context) {
	subjectID, ok := parseID(c, "id", "subject")
	if !ok {
		return
	}

	result, err := h.service.AnalyzeRecentTrips(c.Request.Context(), subjectID, h.now())
	if err != nil {
		fail(c, err, "analyze recent trips")
		return
	}

	response.Success(c, result)
}
