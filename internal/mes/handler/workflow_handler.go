package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// WorkflowHandler 工艺流程处理器
type WorkflowHandler struct {
	svc *service.WorkflowService
}

func NewWorkflowHandler(svc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// ValidateRequest 工艺流程确认请求
type ValidateRequest struct {
	Steps []service.StepConfigInput `json:"steps" binding:"required"`
}

// Validate POST /items/:id/workflow/validate
// 确认工艺流程：锁定流程并按 工序×机台 生成生产任务
func (h *WorkflowHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	tasks, err := h.svc.Validate(c.Param("id"), req.Steps)
	if err != nil {
		RespondError(c, err)
		return
	}

	Created(c, gin.H{"tasks": tasks})
}

// Unlock POST /items/:id/workflow/unlock
func (h *WorkflowHandler) Unlock(c *gin.Context) {
	item, err := h.svc.Unlock(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}
