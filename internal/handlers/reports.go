package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance/internal/repository"
)

type reportRequest struct {
	Content string `json:"content"`
	Date    string `json:"date"`
}

func (h HandlerSet) SubmitReport(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	report, err := h.reports.Submit(c.Request.Context(), userID, req.Content, req.Date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h HandlerSet) TodayReport(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	report, err := h.reports.Get(c.Request.Context(), userID, h.reports.Today())
	if errors.Is(err, repository.ErrReportNotFound) {
		c.JSON(http.StatusOK, gin.H{"report": nil, "submitted": false})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "submitted": true})
}

func (h HandlerSet) ReportByDate(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	report, err := h.reports.Get(c.Request.Context(), userID, c.Param("date"))
	if errors.Is(err, repository.ErrReportNotFound) {
		c.JSON(http.StatusOK, gin.H{"report": nil})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h HandlerSet) ReportHistory(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	reports, err := h.reports.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h HandlerSet) ReportStatus(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	_, err := h.reports.Get(c.Request.Context(), userID, h.reports.Today())
	if err != nil && !errors.Is(err, repository.ErrReportNotFound) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submitted": err == nil})
}
