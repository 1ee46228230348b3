package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendance/internal/export"
	"attendance/internal/models"
	"attendance/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h HandlerSet) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": h.toUserResponses(users)})
}

func (h HandlerSet) PendingUsers(c *gin.Context) {
	users, err := h.users.ListByStatus(c.Request.Context(), models.UserStatusPending)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": h.toUserResponses(users)})
}

type userStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h HandlerSet) SetUserStatus(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	var req userStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.users.SetStatus(c.Request.Context(), id, models.UserStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": h.toUserResponse(user)})
}

func (h HandlerSet) ReportsByDate(c *gin.Context) {
	reports, err := h.reports.ListByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h HandlerSet) MissingReports(c *gin.Context) {
	users, err := h.reports.MissingForDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": h.toUserResponses(users)})
}

func (h HandlerSet) UserStatistics(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	h.statisticsFor(c, id)
}

func (h HandlerSet) UserChart(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	h.chartFor(c, id)
}

func (h HandlerSet) AllStatistics(c *gin.Context) {
	var req dateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	entries, err := h.statistics.ForAllUsers(c.Request.Context(), req.StartDate, req.EndDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// ExportStatistics serves the all-users statistics for the query range as an
// xlsx download.
func (h HandlerSet) ExportStatistics(c *gin.Context) {
	var req dateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	entries, err := h.statistics.ForAllUsers(c.Request.Context(), req.StartDate, req.EndDate)
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.StatisticsWorkbook(&buf, req.StartDate, req.EndDate, entries); err != nil {
		h.fail(c, err)
		return
	}

	filename := fmt.Sprintf("attendance_%s_%s.xlsx", req.StartDate, req.EndDate)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

type settingsRequest struct {
	WorkStart  *string `json:"work_start"`
	WorkEnd    *string `json:"work_end"`
	LunchStart *string `json:"lunch_start"`
	LunchEnd   *string `json:"lunch_end"`
	Geofence   *struct {
		CenterLat    *float64 `json:"center_lat"`
		CenterLng    *float64 `json:"center_lng"`
		RadiusMeters *float64 `json:"radius_meters"`
	} `json:"geofence"`
}

func (h HandlerSet) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	patch := service.SettingsPatch{
		WorkStart:  req.WorkStart,
		WorkEnd:    req.WorkEnd,
		LunchStart: req.LunchStart,
		LunchEnd:   req.LunchEnd,
	}
	if req.Geofence != nil {
		patch.CenterLat = req.Geofence.CenterLat
		patch.CenterLng = req.Geofence.CenterLng
		patch.RadiusMeters = req.Geofence.RadiusMeters
	}

	settings, err := h.settings.Update(c.Request.Context(), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}
