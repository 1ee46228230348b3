package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"attendance/internal/config"
	"attendance/internal/middleware"
	"attendance/internal/repository"
	"attendance/internal/service"
)

type HandlerSet struct {
	log        zerolog.Logger
	cfg        *config.AppConfig
	cache      *redis.Client
	users      *service.UserService
	auth       *service.AuthService
	sessions   *service.SessionService
	reports    *service.ReportService
	statistics *service.StatisticsService
	settings   *service.SettingsService
}

// NewHandlerSet builds the HTTP handlers. cache may be nil when background
// tasks are disabled.
func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, services *service.Services, cache *redis.Client) HandlerSet {
	return HandlerSet{
		log:        log,
		cfg:        cfg,
		cache:      cache,
		users:      services.Users,
		auth:       services.Auth,
		sessions:   services.Sessions,
		reports:    services.Reports,
		statistics: services.Statistics,
		settings:   services.Settings,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)

	authed := v1.Group("")
	authed.Use(middleware.Auth(h.cfg, h.users))
	authed.GET("/users/me", h.Me)
	authed.GET("/users/is-admin", h.IsAdmin)

	member := authed.Group("")
	member.Use(middleware.RequireActive(h.users))
	{
		sessions := member.Group("/sessions")
		sessions.POST("/start", h.StartSession)
		sessions.POST("/end", h.EndSession)
		sessions.GET("/today", h.TodaySession)
		sessions.POST("/history", h.SessionHistory)
		sessions.GET("/should-track", h.ShouldTrack)

		locations := member.Group("/locations")
		locations.POST("/record", h.RecordLocation)
		locations.GET("/session/:id", h.SessionLocations)
		locations.GET("/should-track", h.ShouldTrack)

		reports := member.Group("/reports")
		reports.POST("/submit", h.SubmitReport)
		reports.GET("/today", h.TodayReport)
		reports.GET("/date/:date", h.ReportByDate)
		reports.GET("/history", h.ReportHistory)
		reports.GET("/status", h.ReportStatus)

		statistics := member.Group("/statistics")
		statistics.POST("/me", h.MyStatistics)
		statistics.POST("/chart/me", h.MyChart)

		member.GET("/settings", h.GetSettings)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin(h.users))
	admin.GET("/users", h.ListUsers)
	admin.GET("/users/pending", h.PendingUsers)
	admin.PUT("/users/:id/status", h.SetUserStatus)
	admin.GET("/reports/:date", h.ReportsByDate)
	admin.GET("/reports/:date/missing", h.MissingReports)
	admin.POST("/statistics/user/:id", h.UserStatistics)
	admin.POST("/statistics/all", h.AllStatistics)
	admin.POST("/statistics/chart/user/:id", h.UserChart)
	admin.GET("/statistics/export", h.ExportStatistics)
	admin.PUT("/settings", h.UpdateSettings)
}

// fail maps service errors onto HTTP statuses. Refused operations are client
// errors; anything else is logged and reported as a server error.
func (h HandlerSet) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_inactive"})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotPermitted):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}

func (h HandlerSet) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h HandlerSet) currentUser(c *gin.Context) (int64, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return user.ID, true
}

type dateRangeRequest struct {
	StartDate string `json:"start_date" form:"start_date" binding:"required"`
	EndDate   string `json:"end_date" form:"end_date" binding:"required"`
}
