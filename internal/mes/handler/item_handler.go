package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// ItemHandler 生产物料项处理器
type ItemHandler struct {
	svc *service.ItemService
}

func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// Create POST /projects/:id/items
func (h *ItemHandler) Create(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	item, err := h.svc.Create(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, item)
}

// Get GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// ListByProject GET /projects/:id/items
func (h *ItemHandler) ListByProject(c *gin.Context) {
	items, err := h.svc.ListByProject(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Update PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	item, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// LockBom POST /items/:id/bom/lock
func (h *ItemHandler) LockBom(c *gin.Context) {
	item, err := h.svc.LockBom(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, item)
}

// Delete DELETE /items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
