package entity

import (
	"time"
)

// BomItem 产出物用料明细
// Allocated/Realized 两个计数器只由报工引擎在首工序报工时累加：
// Realized 对应实际处理量（良品+不良品），Allocated 只对应良品
type BomItem struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	ItemID          string     `json:"item_id" gorm:"type:uuid;not null;index"`
	MaterialID      string     `json:"material_id" gorm:"type:uuid;not null;index"`
	QuantityPerUnit float64    `json:"quantity_per_unit" gorm:"type:decimal(12,4);not null"`
	TotalRequired   float64    `json:"total_required" gorm:"type:decimal(12,4);not null;default:0"`
	Allocated       float64    `json:"allocated" gorm:"type:decimal(12,4);not null;default:0"`
	Realized        float64    `json:"realized" gorm:"type:decimal(12,4);not null;default:0"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at" gorm:"index"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (BomItem) TableName() string {
	return "mes_bom_items"
}

// RecalcRequired 按产出物数量重算需求总量
func (b *BomItem) RecalcRequired(itemQuantity float64) {
	b.TotalRequired = itemQuantity * b.QuantityPerUnit
}
