package repository

import (
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) WithTx(tx *gorm.DB) *LogRepository {
	return &LogRepository{db: tx}
}

// Create 追加报工记录。记录只增不改不删。
func (r *LogRepository) Create(l *entity.ProductionLog) error {
	return r.db.Create(l).Error
}

func (r *LogRepository) ListByTask(taskID string) ([]entity.ProductionLog, error) {
	var logs []entity.ProductionLog
	err := r.db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&logs).Error
	return logs, err
}

type LogListParams struct {
	ProjectID string
	ItemID    string
	MachineID string
	Shift     string
	From      *time.Time
	To        *time.Time
	Page      int
	Size      int
}

func (r *LogRepository) List(params LogListParams) ([]entity.ProductionLog, int64, error) {
	query := r.db.Model(&entity.ProductionLog{})
	if params.ProjectID != "" {
		query = query.Where("project_id = ?", params.ProjectID)
	}
	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.MachineID != "" {
		query = query.Where("machine_id = ?", params.MachineID)
	}
	if params.Shift != "" {
		query = query.Where("shift = ?", params.Shift)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at < ?", *params.To)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var logs []entity.ProductionLog
	err := query.Order("created_at DESC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&logs).Error
	return logs, total, err
}

// SumGoodByItemStep 某产出物某工序的累计良品量（含冲正的负量）
func (r *LogRepository) SumGoodByItemStep(itemID, step string) (float64, error) {
	var result struct{ Total float64 }
	err := r.db.Raw(`
		SELECT COALESCE(SUM(good_qty), 0) as total
		FROM mes_production_logs
		WHERE item_id = ? AND step = ?
	`, itemID, step).Scan(&result).Error
	return result.Total, err
}

// ShiftTotals 班次汇总结果
type ShiftTotals struct {
	GoodQty   float64 `json:"good_qty"`
	DefectQty float64 `json:"defect_qty"`
	Reports   int64   `json:"reports"`
}

// SumByMachineShiftDate 某机台某班次当日的良品/不良品合计
func (r *LogRepository) SumByMachineShiftDate(machineID, shift string, day time.Time) (*ShiftTotals, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	var totals ShiftTotals
	err := r.db.Raw(`
		SELECT COALESCE(SUM(good_qty), 0) as good_qty,
		       COALESCE(SUM(defect_qty), 0) as defect_qty,
		       COUNT(*) as reports
		FROM mes_production_logs
		WHERE machine_id = ? AND shift = ? AND created_at >= ? AND created_at < ?
	`, machineID, shift, start, end).Scan(&totals).Error
	return &totals, err
}
