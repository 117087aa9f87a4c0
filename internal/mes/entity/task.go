package entity

import (
	"time"
)

// TaskStatus 任务状态机
// PENDING → IN_PROGRESS ⇄ PAUSED，IN_PROGRESS ⇄ DOWNTIME，IN_PROGRESS → COMPLETED
const (
	TaskStatusPending    = "PENDING"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusPaused     = "PAUSED"
	TaskStatusDowntime   = "DOWNTIME"
	TaskStatusCompleted  = "COMPLETED"
)

// Task 执行单元：一个产出物的一道工序在一台机台上的生产任务
// (ProjectID, ItemID, Step, MachineID) 创建后不可变，只有计数器与状态可变。
// 同一机台同一时刻最多一个活跃任务（IN_PROGRESS/DOWNTIME）。
type Task struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID            string     `json:"project_id" gorm:"type:uuid;not null;index"`
	ItemID               string     `json:"item_id" gorm:"type:uuid;not null;index"`
	Step                 string     `json:"step" gorm:"size:50;not null"`
	MachineID            string     `json:"machine_id" gorm:"type:uuid;not null;index"`
	TargetQty            float64    `json:"target_qty" gorm:"type:decimal(12,4);not null"`
	CompletedQty         float64    `json:"completed_qty" gorm:"type:decimal(12,4);not null;default:0"`
	DefectQty            float64    `json:"defect_qty" gorm:"type:decimal(12,4);not null;default:0"`
	Status               string     `json:"status" gorm:"size:20;not null;default:PENDING"`
	DowntimeStart        *time.Time `json:"downtime_start"`
	TotalDowntimeMinutes int        `json:"total_downtime_minutes" gorm:"default:0"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	DeletedAt            *time.Time `json:"deleted_at" gorm:"index"`
}

func (Task) TableName() string {
	return "mes_tasks"
}

// IsActive 任务是否占用机台
func (t *Task) IsActive() bool {
	return t.Status == TaskStatusInProgress || t.Status == TaskStatusDowntime
}
