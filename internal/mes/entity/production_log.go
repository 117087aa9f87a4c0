package entity

import (
	"time"
)

// Shift 班次（每日三班）
const (
	Shift1 = "SHIFT_1"
	Shift2 = "SHIFT_2"
	Shift3 = "SHIFT_3"
)

// ValidShift 校验班次取值
func ValidShift(s string) bool {
	return s == Shift1 || s == Shift2 || s == Shift3
}

// LogType 报工记录类型
const (
	LogTypeProduction = "PRODUCTION" // 正常报工
	LogTypeCorrection = "CORRECTION" // 负向冲正（纠错）
)

// ProductionLog 报工记录，只追加不修改不删除
// 所有读侧统计（工序产量、班次汇总、完成率）均由该表+任务表实时推导
type ProductionLog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID    string    `json:"task_id" gorm:"type:uuid;not null;index"`
	MachineID string    `json:"machine_id" gorm:"type:uuid;not null;index"`
	ItemID    string    `json:"item_id" gorm:"type:uuid;not null;index"`
	ProjectID string    `json:"project_id" gorm:"type:uuid;not null;index"`
	Step      string    `json:"step" gorm:"size:50;not null"`
	Shift     string    `json:"shift" gorm:"size:20;not null"`
	GoodQty   float64   `json:"good_qty" gorm:"type:decimal(12,4);not null"`
	DefectQty float64   `json:"defect_qty" gorm:"type:decimal(12,4);not null"`
	Operator  string    `json:"operator" gorm:"size:64;not null"`
	Type      string    `json:"type" gorm:"size:20;not null;default:PRODUCTION"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProductionLog) TableName() string {
	return "mes_production_logs"
}
