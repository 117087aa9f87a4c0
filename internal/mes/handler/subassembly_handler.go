package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// SubAssemblyHandler 子装配件处理器
type SubAssemblyHandler struct {
	svc   *service.SubAssemblyService
	stats *service.StatsService
}

func NewSubAssemblyHandler(svc *service.SubAssemblyService, stats *service.StatsService) *SubAssemblyHandler {
	return &SubAssemblyHandler{svc: svc, stats: stats}
}

// Create POST /items/:id/subassemblies
func (h *SubAssemblyHandler) Create(c *gin.Context) {
	var req service.CreateSubAssemblyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	sub, err := h.svc.Create(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, sub)
}

// Get GET /subassemblies/:id
func (h *SubAssemblyHandler) Get(c *gin.Context) {
	sub, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sub)
}

// ListByItem GET /items/:id/subassemblies
func (h *SubAssemblyHandler) ListByItem(c *gin.Context) {
	subs, err := h.svc.ListByItem(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": subs})
}

// Update PUT /subassemblies/:id
func (h *SubAssemblyHandler) Update(c *gin.Context) {
	var req service.UpdateSubAssemblyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	sub, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sub)
}

// Lock POST /subassemblies/:id/lock
func (h *SubAssemblyHandler) Lock(c *gin.Context) {
	sub, err := h.svc.Lock(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sub)
}

// Consume POST /subassemblies/:id/consume
// 总装领用：从末道工序可用量中扣减
func (h *SubAssemblyHandler) Consume(c *gin.Context) {
	var req service.ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	sub, err := h.svc.Consume(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sub)
}

// StepStats GET /subassemblies/:id/stats
// 按工序的产出与可用量
func (h *SubAssemblyHandler) StepStats(c *gin.Context) {
	stats, err := h.stats.SubAssemblyStepStats(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"steps": stats})
}

// Delete DELETE /subassemblies/:id
func (h *SubAssemblyHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
