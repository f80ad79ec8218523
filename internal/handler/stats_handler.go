package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mark1ns0n/country-days-backend/internal/dateutil"
	"github.com/mark1ns0n/country-days-backend/internal/models"
	"github.com/mark1ns0n/country-days-backend/internal/service"
	"github.com/mark1ns0n/country-days-backend/pkg/response"
)

var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// StatsHandler handles HTTP requests for aggregate statistics
type StatsHandler struct {
	service *service.StatsService
	loc     *time.Location
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service *service.StatsService, loc *time.Location) *StatsHandler {
	return &StatsHandler{service: service, loc: loc}
}

func (h *StatsHandler) bindRange(c *gin.Context) (dateutil.Range, bool) {
	var q models.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return dateutil.Range{}, false
	}
	if q.From <= 0 || q.To <= 0 {
		response.Error(c, http.StatusBadRequest, "Both from and to are required (Unix seconds)", nil)
		return dateutil.Range{}, false
	}
	return dateutil.NewRange(time.Unix(q.From, 0).In(h.loc), time.Unix(q.To, 0).In(h.loc)), true
}

// GetDaysByCountry handles GET /api/v1/stats/days-by-country
func (h *StatsHandler) GetDaysByCountry(c *gin.Context) {
	r, ok := h.bindRange(c)
	if !ok {
		return
	}

	counts, err := h.service.DaysByCountry(c.Request.Context(), r)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute day counts", err)
		return
	}
	response.Success(c, counts)
}

// GetVisited handles GET /api/v1/stats/visited
func (h *StatsHandler) GetVisited(c *gin.Context) {
	r, ok := h.bindRange(c)
	if !ok {
		return
	}

	visited, err := h.service.VisitedCountries(c.Request.Context(), r)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute visited countries", err)
		return
	}
	response.Success(c, gin.H{"countries": visited, "count": len(visited)})
}

// GetDays handles GET /api/v1/stats/days
func (h *StatsHandler) GetDays(c *gin.Context) {
	r, ok := h.bindRange(c)
	if !ok {
		return
	}

	days, err := h.service.UniqueDaysWithCountry(c.Request.Context(), r)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute day count", err)
		return
	}
	response.Success(c, gin.H{"days": days})
}

// GetForecast handles GET /api/v1/stats/forecast
func (h *StatsHandler) GetForecast(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Query("code")))
	if !countryCodeRe.MatchString(code) {
		response.Error(c, http.StatusBadRequest, "code must be a two-letter country code", nil)
		return
	}
	r, ok := h.bindRange(c)
	if !ok {
		return
	}

	forecast, err := h.service.Forecast(c.Request.Context(), code, r)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute forecast", err)
		return
	}
	response.Success(c, forecast)
}

// GetCalendar handles GET /api/v1/calendar?month=YYYY-MM
func (h *StatsHandler) GetCalendar(c *gin.Context) {
	monthStr := c.Query("month")
	month, err := time.ParseInLocation("2006-01", monthStr, h.loc)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "month must be YYYY-MM", err)
		return
	}

	dayMap, err := h.service.DayMap(c.Request.Context(), h.service.MonthRange(month))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to compute calendar", err)
		return
	}
	response.Success(c, dayMap)
}

// GetSummary handles GET /api/v1/summary
func (h *StatsHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get summary", err)
		return
	}
	response.Success(c, summary)
}
