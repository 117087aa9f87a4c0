package service

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubAssemblyService struct {
	subRepo  *repository.SubAssemblyRepository
	itemRepo *repository.ItemRepository
	taskRepo *repository.TaskRepository
	logRepo  *repository.LogRepository
	db       *gorm.DB
}

func NewSubAssemblyService(subRepo *repository.SubAssemblyRepository, itemRepo *repository.ItemRepository, taskRepo *repository.TaskRepository, logRepo *repository.LogRepository, db *gorm.DB) *SubAssemblyService {
	return &SubAssemblyService{subRepo: subRepo, itemRepo: itemRepo, taskRepo: taskRepo, logRepo: logRepo, db: db}
}

type CreateSubAssemblyRequest struct {
	Name         string   `json:"name" binding:"required"`
	QtyPerParent float64  `json:"qty_per_parent" binding:"required,gt=0"`
	Processes    []string `json:"processes" binding:"required"`
}

func (s *SubAssemblyService) Create(itemID string, req CreateSubAssemblyRequest) (*entity.SubAssembly, error) {
	if req.QtyPerParent <= 0 {
		return nil, errs.Validation("subassembly.create", "单件配套数必须为正数")
	}
	if len(req.Processes) == 0 {
		return nil, errs.Validation("subassembly.create", "组件工序列表不能为空")
	}

	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, wrapRead(err, "subassembly.create", "ProjectItem", itemID)
	}
	if item.FlowType != entity.FlowTypeAssembly {
		return nil, errs.Validation("subassembly.create", "仅ASSEMBLY流程的产出物可拆分组件")
	}
	if item.IsBomLocked {
		return nil, errs.Locked("subassembly.create", "ProjectItem", itemID)
	}

	sub := &entity.SubAssembly{
		ID:           uuid.New().String(),
		ItemID:       item.ID,
		Name:         req.Name,
		QtyPerParent: req.QtyPerParent,
		Processes:    entity.StringList(req.Processes),
	}
	sub.RecalcNeeded(item.Quantity)

	if err := s.subRepo.Create(sub); err != nil {
		return nil, errs.Collaborator("subassembly.create", err)
	}
	return sub, nil
}

func (s *SubAssemblyService) GetByID(id string) (*entity.SubAssembly, error) {
	sub, err := s.subRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "subassembly.get", "SubAssembly", id)
	}
	return sub, nil
}

func (s *SubAssemblyService) ListByItem(itemID string) ([]entity.SubAssembly, error) {
	subs, err := s.subRepo.ListByItem(itemID)
	if err != nil {
		return nil, errs.Collaborator("subassembly.list", err)
	}
	return subs, nil
}

type UpdateSubAssemblyRequest struct {
	Name         string   `json:"name"`
	QtyPerParent *float64 `json:"qty_per_parent"`
	Processes    []string `json:"processes"`
}

// Update 修改组件。锁定后 Processes/QtyPerParent 冻结。
func (s *SubAssemblyService) Update(id string, req UpdateSubAssemblyRequest) (*entity.SubAssembly, error) {
	sub, err := s.subRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "subassembly.update", "SubAssembly", id)
	}

	structural := req.QtyPerParent != nil || len(req.Processes) > 0
	if structural && sub.IsLocked {
		return nil, errs.Locked("subassembly.update", "SubAssembly", id)
	}

	if req.Name != "" {
		sub.Name = req.Name
	}
	if req.QtyPerParent != nil {
		if *req.QtyPerParent <= 0 {
			return nil, errs.Validation("subassembly.update", "单件配套数必须为正数")
		}
		item, err := s.itemRepo.GetByID(sub.ItemID)
		if err != nil {
			return nil, wrapRead(err, "subassembly.update", "ProjectItem", sub.ItemID)
		}
		sub.QtyPerParent = *req.QtyPerParent
		sub.RecalcNeeded(item.Quantity)
	}
	if len(req.Processes) > 0 {
		sub.Processes = entity.StringList(req.Processes)
	}

	if err := s.subRepo.Update(sub); err != nil {
		return nil, errs.Collaborator("subassembly.update", err)
	}
	return sub, nil
}

// Lock 锁定组件结构，生产开始后由显式动作触发，单向闩锁
func (s *SubAssemblyService) Lock(id string) (*entity.SubAssembly, error) {
	sub, err := s.subRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "subassembly.lock", "SubAssembly", id)
	}
	if sub.IsLocked {
		return nil, errs.InvalidState("subassembly.lock", "SubAssembly", id, "组件已锁定")
	}
	sub.IsLocked = true
	if err := s.subRepo.Update(sub); err != nil {
		return nil, errs.Collaborator("subassembly.lock", err)
	}
	return sub, nil
}

// Delete 删除组件；锁定或已有任务引用其工序时拒绝
func (s *SubAssemblyService) Delete(id string) error {
	sub, err := s.subRepo.GetByID(id)
	if err != nil {
		return wrapRead(err, "subassembly.delete", "SubAssembly", id)
	}
	if sub.IsLocked {
		return errs.Locked("subassembly.delete", "SubAssembly", id)
	}
	count, err := s.taskRepo.CountBySubAssemblySteps(sub.ItemID, []string(sub.Processes))
	if err != nil {
		return errs.Collaborator("subassembly.delete", err)
	}
	if count > 0 {
		return errs.Conflict("subassembly.delete", "SubAssembly", id, "已有生产任务引用该组件的工序")
	}
	if err := s.subRepo.Delete(id); err != nil {
		return errs.Collaborator("subassembly.delete", err)
	}
	return nil
}

type ConsumeRequest struct {
	Qty float64 `json:"qty" binding:"required,gt=0"`
}

// Consume 下游领用组件成品。不变式：累计消耗 ≤ 末道工序累计良品产出。
func (s *SubAssemblyService) Consume(id string, req ConsumeRequest) (*entity.SubAssembly, error) {
	if req.Qty <= 0 {
		return nil, errs.Validation("subassembly.consume", "消耗数量必须为正数")
	}

	var result *entity.SubAssembly
	err := s.db.Transaction(func(tx *gorm.DB) error {
		subRepo := s.subRepo.WithTx(tx)
		sub, err := subRepo.GetByIDForUpdate(id)
		if err != nil {
			return wrapRead(err, "subassembly.consume", "SubAssembly", id)
		}
		if len(sub.Processes) == 0 {
			return errs.InvalidState("subassembly.consume", "SubAssembly", id, "组件未配置工序")
		}

		lastStep := sub.Processes[len(sub.Processes)-1]
		produced, err := s.logRepo.WithTx(tx).SumGoodByItemStep(sub.ItemID, lastStep)
		if err != nil {
			return errs.Collaborator("subassembly.consume", err)
		}
		if sub.ConsumedQty+req.Qty > produced {
			return errs.Conflict("subassembly.consume", "SubAssembly", id, "消耗量超出可用产出")
		}

		sub.ConsumedQty += req.Qty
		if err := subRepo.Update(sub); err != nil {
			return errs.Collaborator("subassembly.consume", err)
		}
		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
