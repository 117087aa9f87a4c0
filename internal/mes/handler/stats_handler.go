package handler

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// StatsHandler 生产统计处理器
type StatsHandler struct {
	svc *service.StatsService
}

func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// ItemCompletion GET /items/:id/completion
// 完成率 = 末道工序累计良品 / 目标数量
func (h *StatsHandler) ItemCompletion(c *gin.Context) {
	pct, err := h.svc.ItemCompletion(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"completion_pct": pct})
}

// ItemStepStat GET /items/:id/steps/:step/stats
func (h *StatsHandler) ItemStepStat(c *gin.Context) {
	stat, err := h.svc.ItemStepStat(c.Param("id"), c.Param("step"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, stat)
}

// ShiftSummary GET /stats/shift-summary?machine_id=&shift=&date=2026-01-15
func (h *StatsHandler) ShiftSummary(c *gin.Context) {
	machineID := c.Query("machine_id")
	shift := c.Query("shift")
	if machineID == "" || shift == "" {
		BadRequest(c, "machine_id 与 shift 不能为空")
		return
	}

	day := time.Now()
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			BadRequest(c, "日期格式应为 YYYY-MM-DD")
			return
		}
		day = parsed
	}

	totals, err := h.svc.ShiftSummary(machineID, shift, day)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, totals)
}

// LowStockAlerts GET /stats/low-stock
func (h *StatsHandler) LowStockAlerts(c *gin.Context) {
	materials, err := h.svc.LowStockAlerts()
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": materials})
}
