package entity

import (
	"time"
)

// MachineStatus 机台状态，随活跃任务状态镜像变化
const (
	MachineStatusIdle        = "IDLE"
	MachineStatusRunning     = "RUNNING"
	MachineStatusMaintenance = "MAINTENANCE"
	MachineStatusOffline     = "OFFLINE"
	MachineStatusDowntime    = "DOWNTIME"
)

// PersonnelRole 排班角色
const (
	PersonnelRolePIC      = "PIC"
	PersonnelRoleOperator = "OPERATOR"
)

// Machine 机台
type Machine struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid"`
	Code          string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"size:128;not null"`
	Status        string     `json:"status" gorm:"size:20;not null;default:IDLE"`
	IsMaintenance bool       `json:"is_maintenance" gorm:"default:false"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`

	Personnel []MachinePersonnel `json:"personnel,omitempty" gorm:"foreignKey:MachineID"`
}

func (Machine) TableName() string {
	return "mes_machines"
}

// MachinePersonnel 机台人员排班（每班次的PIC/操作工）
type MachinePersonnel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	MachineID string    `json:"machine_id" gorm:"type:uuid;not null;index"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null"`
	Role      string    `json:"role" gorm:"size:20;not null"`
	Shift     string    `json:"shift" gorm:"size:20;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MachinePersonnel) TableName() string {
	return "mes_machine_personnel"
}
