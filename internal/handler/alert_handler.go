package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mauzenfan/safety-backend-go/internal/models"
	"github.com/mauzenfan/safety-backend-go/internal/service"
	"github.com/mauzenfan/safety-backend-go/pkg/response"
)

// AlertHandler handles HTTP requests for alert history
type AlertHandler struct {
	service *service.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(service *service.AlertService) *AlertHandler {
	return &AlertHandler{service: service}
}

// ListAlerts handles GET /api/v1/owners/:id/alerts
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	ownerID, ok := parseID(c, "id", "owner")
	if !ok {
		return
	}

	var filter models.AlertFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if filter.Kind != "" && !models.AlertKind(filter.Kind).Valid() {
		response.BadRequest(c, "Invalid alert kind")
		return
	}

	alerts, total, err := h.service.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		fail(c, err, "list alerts")
		return
	}

	// Calculate pagination info
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	if filter.PageSize > 500 {
		filter.PageSize = 500
	}
	if alerts == nil {
		alerts = []models.AlertEvent{}
	}

	response.Paginated(c, alerts, total, filter.Page, filter.PageSize)
}

// RecentNotifications handles GET /api/v1/owners/:id/alerts/recent
func (h *AlertHandler) RecentNotifications(c *gin.Context) {
	ownerID, ok := parseID(c, "id", "owner")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}

	notifications, enabled, err := h.service.Recent(c.Request.Context(), ownerID, limit)
	if err != nil {
		fail(c, err, "read recent notifications")
		return
	}
	if !enabled {
		response.NotFound(c, "Push notifications are not enabled")
		return
	}

	response.Success(c, notifications)
}
