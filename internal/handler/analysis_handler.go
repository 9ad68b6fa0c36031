package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/service"
	"github.com/mauzenfan/safety-backend-go/pkg/response"
)

// AnalysisHandler handles HTTP requests for batch analysis runs
type AnalysisHandler struct {
	service *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// StartRunRequest represents the request body for starting a batch
type StartRunRequest struct {
	Pass string `json:"pass" binding:"required"` // learn_routines, detect_anomalies or weather_check
}

// StartRun runs a batch pass over all active subjects and returns its record
// POST /api/v1/analysis/runs
func (h *AnalysisHandler) StartRun(c *gin.Context) {
	var req StartRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	var (
		view *service.RunView
		err  error
	)
	switch req.Pass {
	case models.PassLearnRoutines:
		view, err = h.service.LearnAll(ctx)
	case models.PassDetectAnomalies:
		view, err = h.service.DetectAll(ctx)
	case models.PassWeatherCheck:
		view, err = h.service.WeatherCheckAll(ctx)
	default:
		response.BadRequest(c, "Unknown pass: "+req.Pass)
		return
	}
	if err != nil && view == nil {
		fail(c, err, "run "+req.Pass)
		return
	}
	if err != nil {
		_ = c.Error(err)
	}

	response.Success(c, view)
}

// GetRun handles GET /api/v1/analysis/runs/:id
func (h *AnalysisHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "get analysis run")
		return
	}

	response.Success(c, run)
}

// ListRuns handles GET /api/v1/analysis/runs
func (h *AnalysisHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}

	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		fail(c, err, "list analysis runs")
		return
	}

	response.Success(c, gin.H{
		"runs":  runs,
		"limit": limit,
	})
}
