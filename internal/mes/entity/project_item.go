package entity

import (
	"time"
)

// FlowType 生产监控路径
const (
	FlowTypeDirect   = "DIRECT"   // 直接生产
	FlowTypeAssembly = "ASSEMBLY" // 组件装配
)

// ProjectItem 项目产出物
// Quantity 永远等于 project.TotalQty * QtySet，项目因子变更时级联重算
type ProjectItem struct {
	ID               string     `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID        string     `json:"project_id" gorm:"type:uuid;not null;index"`
	Name             string     `json:"name" gorm:"size:128;not null"`
	Code             string     `json:"code" gorm:"size:64"`
	QtySet           float64    `json:"qty_set" gorm:"type:decimal(12,4);not null;default:1"`
	Quantity         float64    `json:"quantity" gorm:"type:decimal(12,4);not null;default:0"`
	FlowType         string     `json:"flow_type" gorm:"size:20;not null;default:DIRECT"`
	IsBomLocked      bool       `json:"is_bom_locked" gorm:"default:false"`
	IsWorkflowLocked bool       `json:"is_workflow_locked" gorm:"default:false"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at" gorm:"index"`

	Workflow      []ItemStepConfig `json:"workflow,omitempty" gorm:"foreignKey:ItemID"`
	BomItems      []BomItem        `json:"bom_items,omitempty" gorm:"foreignKey:ItemID"`
	SubAssemblies []SubAssembly    `json:"sub_assemblies,omitempty" gorm:"foreignKey:ItemID"`
}

func (ProjectItem) TableName() string {
	return "mes_project_items"
}

// RecalcQuantity 按项目总量重算产出数量
func (i *ProjectItem) RecalcQuantity(projectTotal float64) {
	i.Quantity = projectTotal * i.QtySet
}

// ItemStepConfig 工艺流程中的一个工序槽位
// Sequence 最小的工序即投料首工序（切割/领料），报工时触发BOM扣料
type ItemStepConfig struct {
	ID         string     `json:"id" gorm:"primaryKey;type:uuid"`
	ItemID     string     `json:"item_id" gorm:"type:uuid;not null;index"`
	Step       string     `json:"step" gorm:"size:50;not null"`
	Sequence   int        `json:"sequence" gorm:"not null"`
	MachineIDs StringList `json:"machine_ids" gorm:"type:jsonb;not null"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (ItemStepConfig) TableName() string {
	return "mes_item_step_configs"
}

// FirstStep 返回工艺流程中序号最小的工序，流程为空返回空串
func FirstStep(configs []ItemStepConfig) string {
	first := ""
	minSeq := 0
	for _, c := range configs {
		if first == "" || c.Sequence < minSeq {
			first = c.Step
			minSeq = c.Sequence
		}
	}
	return first
}

// LastStep 返回工艺流程中序号最大的工序（通常为包装），用于整体完成率
func LastStep(configs []ItemStepConfig) string {
	last := ""
	maxSeq := 0
	for _, c := range configs {
		if last == "" || c.Sequence > maxSeq {
			last = c.Step
			maxSeq = c.Sequence
		}
	}
	return last
}
