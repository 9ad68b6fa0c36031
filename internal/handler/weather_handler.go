package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/service"
	"github.com/mauzenfan/safety-backend-go/pkg/response"
)

// WeatherHandler handles on-demand weather checks
type WeatherHandler struct {
	service *service.WeatherService
	now     func() time.Time
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(service *service.WeatherService) *WeatherHandler {
	return &WeatherHandler{service: service, now: time.Now}
}

// Check handles POST /api/v1/subjects/:id/weather/check
func (h *WeatherHandler) Check(c *gin.Context) {
	subjectID, ok := parseID(c, "id", "subject")
	if !ok {
		return
	}

	alerts, err := h.service.Check(c.Request.Context(), subjectID, h.now())
	if err != nil {
		fail(c, err, "check weather")
		return
	}
	if alerts == nil {
		alerts = []models.AlertEvent{}
	}

	response.Success(c, gin.H{"alerts": alerts})
}
