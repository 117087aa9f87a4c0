package service

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MachineService struct {
	machineRepo *repository.MachineRepository
	taskRepo    *repository.TaskRepository
	db          *gorm.DB
}

func NewMachineService(machineRepo *repository.MachineRepository, taskRepo *repository.TaskRepository, db *gorm.DB) *MachineService {
	return &MachineService{machineRepo: machineRepo, taskRepo: taskRepo, db: db}
}

type CreateMachineRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (s *MachineService) Create(req CreateMachineRequest) (*entity.Machine, error) {
	m := &entity.Machine{
		ID:     uuid.New().String(),
		Code:   req.Code,
		Name:   req.Name,
		Status: entity.MachineStatusIdle,
	}
	if err := s.machineRepo.Create(m); err != nil {
		return nil, errs.Collaborator("machine.create", err)
	}
	return m, nil
}

func (s *MachineService) GetByID(id string) (*entity.Machine, error) {
	m, err := s.machineRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "machine.get", "Machine", id)
	}
	return m, nil
}

func (s *MachineService) List() ([]entity.Machine, error) {
	machines, err := s.machineRepo.List()
	if err != nil {
		return nil, errs.Collaborator("machine.list", err)
	}
	return machines, nil
}

// SetMaintenance 切换维护模式；机台上有活跃任务时拒绝。
// 与任务启动共用同一把机台行锁，否则检查与写入之间可能被并发 Start 插入活跃任务。
func (s *MachineService) SetMaintenance(id string, on bool) (*entity.Machine, error) {
	var result *entity.Machine
	err := s.db.Transaction(func(tx *gorm.DB) error {
		machineRepo := s.machineRepo.WithTx(tx)
		m, err := machineRepo.GetByIDForUpdate(id)
		if err != nil {
			return wrapRead(err, "machine.setMaintenance", "Machine", id)
		}

		if on {
			active, err := s.taskRepo.WithTx(tx).GetActiveByMachine(id, "")
			if err != nil {
				return errs.Collaborator("machine.setMaintenance", err)
			}
			if active != nil {
				return errs.Conflict("machine.setMaintenance", "Machine", id, "机台上有活跃任务 "+active.ID)
			}
			m.IsMaintenance = true
			m.Status = entity.MachineStatusMaintenance
		} else {
			if !m.IsMaintenance {
				return errs.InvalidState("machine.setMaintenance", "Machine", id, "机台不在维护模式")
			}
			m.IsMaintenance = false
			m.Status = entity.MachineStatusIdle
		}

		if err := machineRepo.Update(m); err != nil {
			return errs.Collaborator("machine.setMaintenance", err)
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type PersonnelInput struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
	Shift  string `json:"shift" binding:"required"`
}

// ReplacePersonnel 整体替换机台排班
func (s *MachineService) ReplacePersonnel(machineID string, inputs []PersonnelInput) (*entity.Machine, error) {
	m, err := s.machineRepo.GetByID(machineID)
	if err != nil {
		return nil, wrapRead(err, "machine.personnel", "Machine", machineID)
	}

	personnel := make([]entity.MachinePersonnel, 0, len(inputs))
	for _, in := range inputs {
		if in.Role != entity.PersonnelRolePIC && in.Role != entity.PersonnelRoleOperator {
			return nil, errs.Validation("machine.personnel", "非法排班角色: "+in.Role)
		}
		if !entity.ValidShift(in.Shift) {
			return nil, errs.Validation("machine.personnel", "非法班次: "+in.Shift)
		}
		personnel = append(personnel, entity.MachinePersonnel{
			ID:        uuid.New().String(),
			MachineID: m.ID,
			UserID:    in.UserID,
			Role:      in.Role,
			Shift:     in.Shift,
		})
	}

	if err := s.machineRepo.ReplacePersonnel(m.ID, personnel); err != nil {
		return nil, errs.Collaborator("machine.personnel", err)
	}
	return s.GetByID(m.ID)
}

// Delete 删除前在机台行锁下确认无活跃任务
func (s *MachineService) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		machineRepo := s.machineRepo.WithTx(tx)
		if _, err := machineRepo.GetByIDForUpdate(id); err != nil {
			return wrapRead(err, "machine.delete", "Machine", id)
		}
		active, err := s.taskRepo.WithTx(tx).GetActiveByMachine(id, "")
		if err != nil {
			return errs.Collaborator("machine.delete", err)
		}
		if active != nil {
			return errs.Conflict("machine.delete", "Machine", id, "机台上有活跃任务 "+active.ID)
		}
		if err := machineRepo.Delete(id); err != nil {
			return errs.Collaborator("machine.delete", err)
		}
		return nil
	})
}
