package handler

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// ExportHandler 报表导出处理器
type ExportHandler struct {
	svc *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ShiftSummary GET /export/shift-summary?date=2026-01-15
func (h *ExportHandler) ShiftSummary(c *gin.Context) {
	day := time.Now()
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			BadRequest(c, "日期格式应为 YYYY-MM-DD")
			return
		}
		day = parsed
	}

	f, err := h.svc.ShiftSummaryWorkbook(day)
	if err != nil {
		RespondError(c, err)
		return
	}

	filename := "shift_summary_" + day.Format("20060102") + ".xlsx"
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}

// ProductionLogs GET /export/production-logs
func (h *ExportHandler) ProductionLogs(c *gin.Context) {
	params := repository.LogListParams{
		ProjectID: c.Query("project_id"),
		ItemID:    c.Query("item_id"),
		MachineID: c.Query("machine_id"),
		Shift:     c.Query("shift"),
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

	f, err := h.svc.ProductionLogWorkbook(params)
	if err != nil {
		RespondError(c, err)
		return
	}

	filename := "production_logs_" + time.Now().Format("20060102150405") + ".xlsx"
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
