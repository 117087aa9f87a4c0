package entity

import (
	"time"
)

// Material 原材料
// CurrentStock 只由两条路径变更：报工引擎首工序扣料、显式库存调整（到货/盘点）。
// 库存允许为负（产线如实上报优先于库存校验），低库存由 CurrentStock < SafetyStock 信号揭示。
type Material struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid"`
	Code         string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:128;not null"`
	Unit         string     `json:"unit" gorm:"size:20;not null;default:pcs"`
	CurrentStock float64    `json:"current_stock" gorm:"type:decimal(12,4);not null;default:0"`
	SafetyStock  float64    `json:"safety_stock" gorm:"type:decimal(12,4);not null;default:0"`
	PricePerUnit float64    `json:"price_per_unit" gorm:"type:decimal(12,4);not null;default:0"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (Material) TableName() string {
	return "mes_materials"
}

// IsLowStock 低库存信号
func (m *Material) IsLowStock() bool {
	return m.CurrentStock < m.SafetyStock
}

// AdjustType 库存调整类型
const (
	AdjustTypeProcurement = "PROCUREMENT" // 采购到货
	AdjustTypeManual      = "MANUAL"      // 人工盘点调整
)
