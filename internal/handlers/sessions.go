package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance/internal/repository"
	"attendance/internal/service"
)

func (h HandlerSet) StartSession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	session, err := h.sessions.Start(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h HandlerSet) EndSession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	session, err := h.sessions.End(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h HandlerSet) TodaySession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	session, err := h.sessions.TodaySession(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h HandlerSet) SessionHistory(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req dateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	sessions, err := h.sessions.Range(c.Request.Context(), userID, req.StartDate, req.EndDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h HandlerSet) ShouldTrack(c *gin.Context) {
	track, err := h.sessions.IsWorkHours(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"should_track": track})
}

type locationRequest struct {
	SessionID string   `json:"session_id"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// RecordLocation stores a sample for the given session, or today's session
// when none is named. Samples outside work hours are answered with
// recorded=false rather than an error.
func (h HandlerSet) RecordLocation(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	sessionID := req.SessionID
	if sessionID == "" {
		session, err := h.sessions.TodaySession(ctx, userID)
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start a session first"})
			return
		}
		if err != nil {
			h.fail(c, err)
			return
		}
		sessionID = session.ID
	}

	location, err := h.sessions.RecordLocation(ctx, userID, sessionID, *req.Latitude, *req.Longitude)
	if errors.Is(err, service.ErrOutsideWorkHours) {
		c.JSON(http.StatusOK, gin.H{"recorded": false, "message": err.Error()})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true, "location": location})
}

func (h HandlerSet) SessionLocations(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	session, err := h.sessions.Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if session.UserID != userID && !h.users.IsAdmin(userID) {
		h.fail(c, repository.ErrSessionNotFound)
		return
	}

	locations, err := h.sessions.Locations(ctx, session.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}
