package entity

import (
	"time"
)

// SubAssembly 组件（半成品）
// 仅ASSEMBLY流程的产出物拥有组件；Processes 是组件经过的原材加工工序子集（有序）。
// IsLocked 置位后 Processes/QtyPerParent 冻结，且不可删除。
type SubAssembly struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid"`
	ItemID       string     `json:"item_id" gorm:"type:uuid;not null;index"`
	Name         string     `json:"name" gorm:"size:128;not null"`
	QtyPerParent float64    `json:"qty_per_parent" gorm:"type:decimal(12,4);not null;default:1"`
	TotalNeeded  float64    `json:"total_needed" gorm:"type:decimal(12,4);not null;default:0"`
	Processes    StringList `json:"processes" gorm:"type:jsonb;not null"`
	CompletedQty float64    `json:"completed_qty" gorm:"type:decimal(12,4);not null;default:0"`
	ConsumedQty  float64    `json:"consumed_qty" gorm:"type:decimal(12,4);not null;default:0"`
	IsLocked     bool       `json:"is_locked" gorm:"default:false"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (SubAssembly) TableName() string {
	return "mes_sub_assemblies"
}

// RecalcNeeded 按父产出物数量重算组件需求
func (s *SubAssembly) RecalcNeeded(itemQuantity float64) {
	s.TotalNeeded = itemQuantity * s.QtyPerParent
}
