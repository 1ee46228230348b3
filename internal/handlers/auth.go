package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance/internal/middleware"
	"attendance/internal/models"
	"attendance/internal/service"
)

type registerRequest struct {
	ID          int64  `json:"id" binding:"required"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name"`
	Password    string `json:"password" binding:"required,min=6"`
	AdminSecret string `json:"admin_secret"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Status    string `json:"status"`
	IsAdmin   bool   `json:"is_admin"`
}

func (h HandlerSet) toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		Status:    string(user.Status),
		IsAdmin:   h.users.CanAdminister(user),
	}
}

func (h HandlerSet) toUserResponses(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, h.toUserResponse(user))
	}
	return out
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		ID:          req.ID,
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": h.toUserResponse(user)})
}

type loginRequest struct {
	ID       int64  `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": result.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   int(h.cfg.Security.JWTTTL.Seconds()),
		"user":         h.toUserResponse(result.User),
	})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": h.toUserResponse(user)})
}

func (h HandlerSet) IsAdmin(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_admin": h.users.CanAdminister(user)})
}
