package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// MachineHandler 机台处理器
type MachineHandler struct {
	svc *service.MachineService
}

func NewMachineHandler(svc *service.MachineService) *MachineHandler {
	return &MachineHandler{svc: svc}
}

// Create POST /machines
func (h *MachineHandler) Create(c *gin.Context) {
	var req service.CreateMachineRequest
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

// Get GET /machines/:id
func (h *MachineHandler) Get(c *gin.Context) {
	m, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, m)
}

// List GET /machines
func (h *MachineHandler) List(c *gin.Context) {
	machines, err := h.svc.List()
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": machines})
}

// SetMaintenance PUT /machines/:id/maintenance
func (h *MachineHandler) SetMaintenance(c *gin.Context) {
	var req struct {
		On bool `json:"on"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	m, err := h.svc.SetMaintenance(c.Param("id"), req.On)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, m)
}

// ReplacePersonnel PUT /machines/:id/personnel
func (h *MachineHandler) ReplacePersonnel(c *gin.Context) {
	var req struct {
		Personnel []service.PersonnelInput `json:"personnel" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	m, err := h.svc.ReplacePersonnel(c.Param("id"), req.Personnel)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, m)
}

// Delete DELETE /machines/:id
func (h *MachineHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
