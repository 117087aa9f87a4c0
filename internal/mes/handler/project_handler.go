package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	project, err := h.svc.Create(req, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	Created(c, project)
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, project)
}

// List GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.ProjectListParams{
		Status:  c.Query("status"),
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    pageSize,
	}

	projects, total, err := h.svc.List(params)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, ListResponse{
		Items:      projects,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// UpdateTargets PUT /projects/:id/targets
func (h *ProjectHandler) UpdateTargets(c *gin.Context) {
	var req service.UpdateTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	project, err := h.svc.UpdateTargets(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, project)
}

// Lock POST /projects/:id/lock
func (h *ProjectHandler) Lock(c *gin.Context) {
	project, err := h.svc.Lock(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, project)
}

// UpdateStatus PUT /projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	project, err := h.svc.UpdateStatus(c.Param("id"), req.Status)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, project)
}

// Delete DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
