package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/service"
	"github.com/jengzang/records-activity-go/pkg/response"
)

const markdownContentType = "text/markdown; charset=utf-8"

// TripHandler handles HTTP requests for daily and trip activity reports
type TripHandler struct {
	service *service.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(service *service.TripService) *TripHandler {
	return &TripHandler{service: service}
}

type dayQuery struct {
	Date   string `form:"date" json:"date" validate:"required"`
	TripID string `form:"trip_id" json:"trip_id" validate:"omitempty,max=128"`
	Format string `form:"format" json:"format" validate:"omitempty,oneof=json markdown"`
}

// AnalyzeDay handles GET /api/v1/activities/day
func (h *TripHandler) AnalyzeDay(c *gin.Context) {
	var q dayQuery
	if !bindQuery(c, &q) {
		return
	}
	reg, err := h.service.RegistryFor(q.TripID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	summary, err := h.service.AnalyzeDay(c.Request.Context(), q.Date, reg)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if q.Format == "markdown" {
		c.Data(http.StatusOK, markdownContentType, []byte(service.RenderDailySummary(summary)))
		return
	}
	response.Success(c, summary)
}

// AnalyzeTrip handles POST /api/v1/trips/analyze
func (h *TripHandler) AnalyzeTrip(c *gin.Context) {
	var info models.TripInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ta, err := h.service.AnalyzeTrip(c.Request.Context(), info)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, markdownContentType, []byte(service.RenderTrip(ta)))
		return
	}
	response.Success(c, ta)
}
