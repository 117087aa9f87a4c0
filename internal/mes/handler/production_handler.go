package handler

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// ProductionHandler 报工处理器
type ProductionHandler struct {
	svc *service.ProductionService
}

func NewProductionHandler(svc *service.ProductionService) *ProductionHandler {
	return &ProductionHandler{svc: svc}
}

// Report POST /tasks/:id/report
func (h *ProductionHandler) Report(c *gin.Context) {
	var req service.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	task, err := h.svc.Report(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// Correction POST /tasks/:id/correction
// 冲正：按正数幅度回退已上报的数量
func (h *ProductionHandler) Correction(c *gin.Context) {
	var req service.CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	task, err := h.svc.ReportCorrection(c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// ListLogs GET /production/logs
func (h *ProductionHandler) ListLogs(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.LogListParams{
		ProjectID: c.Query("project_id"),
		ItemID:    c.Query("item_id"),
		MachineID: c.Query("machine_id"),
		Shift:     c.Query("shift"),
		Page:      page,
		Size:      pageSize,
	}

	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			params.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			params.To = &t
		}
	}

	logs, total, err := h.svc.Logs(params)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, ListResponse{
		Items:      logs,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// TaskLogs GET /tasks/:id/logs
func (h *ProductionHandler) TaskLogs(c *gin.Context) {
	logs, err := h.svc.LogsByTask(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": logs})
}
