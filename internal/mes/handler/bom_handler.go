package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// BomHandler BOM处理器
type BomHandler struct {
	svc *service.BomService
}

func NewBomHandler(svc *service.BomService) *BomHandler {
	return &BomHandler{svc: svc}
}

// Add POST /items/:id/bom
func (h *BomHandler) Add(c *gin.Context) {
	var req service.AddBomItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	bom, err := h.svc.Add(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, bom)
}

// ListByItem GET /items/:id/bom
func (h *BomHandler) ListByItem(c *gin.Context) {
	boms, err := h.svc.ListByItem(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": boms})
}

// Delete DELETE /bom/:bomId
func (h *BomHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("bomId")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
