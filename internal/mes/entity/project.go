package entity

import (
	"time"
)

// ProjectStatus 项目状态
const (
	ProjectStatusPlanned    = "PLANNED"
	ProjectStatusInProgress = "IN_PROGRESS"
	ProjectStatusCompleted  = "COMPLETED"
	ProjectStatusOnHold     = "ON_HOLD"
	ProjectStatusCancelled  = "CANCELLED"
)

// Project 生产项目
// TotalQty 永远等于 QtyPerUnit * ProcurementQty，任一因子变更时重算
type Project struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid"`
	Code           string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name           string     `json:"name" gorm:"size:128;not null"`
	QtyPerUnit     float64    `json:"qty_per_unit" gorm:"type:decimal(12,4);not null;default:0"`
	ProcurementQty float64    `json:"procurement_qty" gorm:"type:decimal(12,4);not null;default:0"`
	TotalQty       float64    `json:"total_qty" gorm:"type:decimal(12,4);not null;default:0"`
	Status         string     `json:"status" gorm:"size:20;not null;default:PLANNED"`
	IsLocked       bool       `json:"is_locked" gorm:"default:false"`
	Notes          string     `json:"notes" gorm:"type:text"`
	CreatedBy      string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`

	Items []ProjectItem `json:"items,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "mes_projects"
}

// RecalcTotal 重算目标总量
func (p *Project) RecalcTotal() {
	p.TotalQty = p.QtyPerUnit * p.ProcurementQty
}
