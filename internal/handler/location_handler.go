package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-activity-go/internal/service"
	"github.com/jengzang/records-activity-go/internal/validation"
	"github.com/jengzang/records-activity-go/pkg/response"
)

// LocationHandler serves the location agent queries
type LocationHandler struct {
	agent       *service.LocationAgent
	commuteDays int
}

// NewLocationHandler creates a new location handler. commuteDays is the
// default window of the commute query.
func NewLocationHandler(agent *service.LocationAgent, commuteDays int) *LocationHandler {
	return &LocationHandler{agent: agent, commuteDays: commuteDays}
}

type whereQuery struct {
	Date string `form:"date" json:"date" validate:"required"`
	Time string `form:"time" json:"time"`
}

// WhereWasI handles GET /api/v1/location/where
func (h *LocationHandler) WhereWasI(c *gin.Context) {
	var q whereQuery
	if !bindQuery(c, &q) {
		return
	}
	res, err := h.agent.WhereWasI(c.Request.Context(), q.Date, q.Time)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// Current handles GET /api/v1/location/current
func (h *LocationHandler) Current(c *gin.Context) {
	res, err := h.agent.GetCurrentLocation(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

type timeAtQuery struct {
	Location  string  `form:"location" json:"location" validate:"required"`
	StartDate string  `form:"start_date" json:"start_date" validate:"required"`
	EndDate   string  `form:"end_date" json:"end_date" validate:"required"`
	RadiusM   float64 `form:"radius" json:"radius" validate:"gte=0"`
}

// TimeAt handles GET /api/v1/location/time-at
func (h *LocationHandler) TimeAt(c *gin.Context) {
	var q timeAtQuery
	if !bindQuery(c, &q) {
		return
	}
	res, err := h.agent.AnalyzeTimeAtLocation(c.Request.Context(), q.Location, q.StartDate, q.EndDate, q.RadiusM)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

type commuteQuery struct {
	Days int `form:"days" json:"days"`
}

// Commute handles GET /api/v1/location/commute
func (h *LocationHandler) Commute(c *gin.Context) {
	var q commuteQuery
	if !bindQuery(c, &q) {
		return
	}
	if q.Days == 0 {
		q.Days = h.commuteDays
	}
	res, err := h.agent.AnalyzeCommutePattern(c.Request.Context(), q.Days)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

type frequentQuery struct {
	Days      int `form:"days" json:"days"`
	MinVisits int `form:"min_visits" json:"min_visits"`
}

// Frequent handles GET /api/v1/location/frequent
func (h *LocationHandler) Frequent(c *gin.Context) {
	q := frequentQuery{Days: 30, MinVisits: 3}
	if !bindQuery(c, &q) {
		return
	}
	res, err := h.agent.GetFrequentLocations(c.Request.Context(), q.Days, q.MinVisits)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// bindQuery binds and validates the query string into q, writing the error
// response itself when that fails
func bindQuery(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return false
	}
	if err := validation.Struct(q); err != nil {
		response.FromError(c, err)
		return false
	}
	return true
}
