package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/service"
)

type exportRequest struct {
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	CalendarName string `json:"calendarName"`
}

func (h *Handler) ListCalendars(c *gin.Context) {
	if h.deps.Exporter == nil {
		abortWithError(c, http.StatusServiceUnavailable, "CalDAV is not configured")
		return
	}
	cals, err := h.deps.Exporter.ListCalendars(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"calendars": cals})
}

// ExportCalendar replaces the range's workout events with the current plan.
// Range problems are rejected here, before anything touches the calendar.
func (h *Handler) ExportCalendar(c *gin.Context) {
	if h.deps.Exporter == nil {
		abortWithError(c, http.StatusServiceUnavailable, "CalDAV is not configured")
		return
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		abortWithError(c, http.StatusBadRequest, "startDate and endDate are required")
		return
	}

	start, err := caldav.ParseDate(req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD")
		return
	}
	end, err := caldav.ParseDate(req.EndDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD")
		return
	}
	if start.After(end) {
		abortWithError(c, http.StatusBadRequest, "startDate must not be after endDate")
		return
	}

	summary, err := h.deps.Exporter.Export(c.Request.Context(), service.ExportRequest{
		Start:        start,
		End:          end,
		CalendarName: req.CalendarName,
	})
	if err != nil {
		if errors.Is(err, caldav.ErrInvalidRange) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}
