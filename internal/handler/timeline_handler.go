package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mark1ns0n/country-days-backend/internal/models"
	"github.com/mark1ns0n/country-days-backend/internal/service"
	"github.com/mark1ns0n/country-days-backend/pkg/response"
)

// TimelineHandler handles HTTP requests for the write path: raw
// observations in, intervals and audit logs out.
type TimelineHandler struct {
	service *service.TimelineService
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(service *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// PostObservation handles POST /api/v1/observations
func (h *TimelineHandler) PostObservation(c *gin.Context) {
	var req models.ObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid observation payload", err)
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to process observation", err)
		return
	}

	response.Success(c, result)
}

// GetIntervals handles GET /api/v1/intervals
func (h *TimelineHandler) GetIntervals(c *gin.Context) {
	var filter models.IntervalFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	filter.NormalizePagination()

	intervals, total, err := h.service.Intervals(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get intervals", err)
		return
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, models.IntervalsResponse{
		Data:       intervals,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	})
}

// GetOpenInterval handles GET /api/v1/intervals/open
func (h *TimelineHandler) GetOpenInterval(c *gin.Context) {
	open, err := h.service.OpenInterval(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get open interval", err)
		return
	}
	if open == nil {
		response.Error(c, http.StatusNotFound, "No open interval", nil)
		return
	}
	response.Success(c, open)
}

// GetLogs handles GET /api/v1/logs
func (h *TimelineHandler) GetLogs(c *gin.Context) {
	var filter models.LogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	logs, err := h.service.RecentLogs(c.Request.Context(), filter.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get logs", err)
		return
	}
	response.Success(c, logs)
}

// PostReconcile handles POST /api/v1/admin/reconcile
func (h *TimelineHandler) PostReconcile(c *gin.Context) {
	repair := c.Query("repair") != "false"

	report, err := h.service.Reconcile(c.Request.Context(), repair)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to reconcile timeline", err)
		return
	}
	response.Success(c, report)
}
