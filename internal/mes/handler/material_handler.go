package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// MaterialHandler 物料处理器
type MaterialHandler struct {
	svc *service.MaterialService
}

func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{svc: svc}
}

// Create POST /materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	m, err := h.svc.Create(req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, m)
}

// Get GET /materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	m, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, m)
}

// List GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.MaterialListParams{
		Keyword: c.Query("keyword"),
		LowOnly: c.Query("low_only") == "true",
		Page:    page,
		Size:    pageSize,
	}

	materials, total, err := h.svc.List(params)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, ListResponse{
		Items:      materials,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// Update PUT /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	m, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, m)
}

// AdjustStock POST /materials/:id/stock
func (h *MaterialHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	m, err := h.svc.AdjustStock(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, m)
}

// Delete DELETE /materials/:id
func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
