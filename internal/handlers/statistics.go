package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) MyStatistics(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	h.statisticsFor(c, userID)
}

func (h HandlerSet) MyChart(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	h.chartFor(c, userID)
}

func (h HandlerSet) statisticsFor(c *gin.Context, userID int64) {
	var req dateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	stats, err := h.statistics.ForRange(c.Request.Context(), userID, req.StartDate, req.EndDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h HandlerSet) chartFor(c *gin.Context, userID int64) {
	var req dateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	chart, err := h.statistics.Chart(c.Request.Context(), userID, req.StartDate, req.EndDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h HandlerSet) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
