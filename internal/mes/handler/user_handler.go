package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.svc.Create(req)
	if err != nil {
		RespondError(c, err)
		return
	}

	Created(c, user)
}

// List GET /users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List()
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": users})
}

// Get GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, user)
}

// Me GET /auth/me
func (h *UserHandler) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.svc.GetByID(userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"name":        user.Name,
		"email":       user.Email,
		"role":        user.Role,
		"permissions": user.Permissions,
		"status":      user.Status,
		"created_at":  user.CreatedAt,
	})
}

// UpdatePermissions PUT /users/:id/permissions
func (h *UserHandler) UpdatePermissions(c *gin.Context) {
	var req service.UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.svc.UpdatePermissions(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, user)
}
