package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) WithTx(tx *gorm.DB) *MachineRepository {
	return &MachineRepository{db: tx}
}

func (r *MachineRepository) Create(m *entity.Machine) error {
	return r.db.Create(m).Error
}

func (r *MachineRepository) GetByID(id string) (*entity.Machine, error) {
	var m entity.Machine
	err := r.db.Preload("Personnel").Where("id = ? AND deleted_at IS NULL", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByIDForUpdate 行锁读取，任务启动时的"检查再占用"必须在该锁下进行
func (r *MachineRepository) GetByIDForUpdate(id string) (*entity.Machine, error) {
	var m entity.Machine
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Update 只落主表字段，预加载的 Personnel 不随 Save 回写
func (r *MachineRepository) Update(m *entity.Machine) error {
	return r.db.Omit(clause.Associations).Save(m).Error
}

func (r *MachineRepository) Delete(id string) error {
	return r.db.Delete(&entity.Machine{}, "id = ?", id).Error
}

func (r *MachineRepository) List() ([]entity.Machine, error) {
	var machines []entity.Machine
	err := r.db.Preload("Personnel").Where("deleted_at IS NULL").
		Order("code ASC").Find(&machines).Error
	return machines, err
}

// ReplacePersonnel 整体替换机台排班
func (r *MachineRepository) ReplacePersonnel(machineID string, personnel []entity.MachinePersonnel) error {
	if err := r.db.Where("machine_id = ?", machineID).Delete(&entity.MachinePersonnel{}).Error; err != nil {
		return err
	}
	if len(personnel) == 0 {
		return nil
	}
	return r.db.Create(&personnel).Error
}
