package service

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemService struct {
	itemRepo    *repository.ItemRepository
	projectRepo *repository.ProjectRepository
	bomRepo     *repository.BomRepository
	subRepo     *repository.SubAssemblyRepository
	taskRepo    *repository.TaskRepository
	db          *gorm.DB
}

func NewItemService(itemRepo *repository.ItemRepository, projectRepo *repository.ProjectRepository, bomRepo *repository.BomRepository, subRepo *repository.SubAssemblyRepository, taskRepo *repository.TaskRepository, db *gorm.DB) *ItemService {
	return &ItemService{itemRepo: itemRepo, projectRepo: projectRepo, bomRepo: bomRepo, subRepo: subRepo, taskRepo: taskRepo, db: db}
}

type CreateItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Code     string  `json:"code"`
	QtySet   float64 `json:"qty_set" binding:"required,gt=0"`
	FlowType string  `json:"flow_type"`
}

func (s *ItemService) Create(projectID string, req CreateItemRequest) (*entity.ProjectItem, error) {
	if req.QtySet <= 0 {
		return nil, errs.Validation("item.create", "单套数量必须为正数")
	}
	flowType := req.FlowType
	if flowType == "" {
		flowType = entity.FlowTypeDirect
	}
	if flowType != entity.FlowTypeDirect && flowType != entity.FlowTypeAssembly {
		return nil, errs.Validation("item.create", "非法的流程类型: "+flowType)
	}

	project, err := s.projectRepo.GetByID(projectID)
	if err != nil {
		return nil, wrapRead(err, "item.create", "Project", projectID)
	}

	item := &entity.ProjectItem{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Name:      req.Name,
		Code:      req.Code,
		QtySet:    req.QtySet,
		FlowType:  flowType,
	}
	item.RecalcQuantity(project.TotalQty)

	if err := s.itemRepo.Create(item); err != nil {
		return nil, errs.Collaborator("item.create", err)
	}
	return item, nil
}

func (s *ItemService) GetByID(id string) (*entity.ProjectItem, error) {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "item.get", "ProjectItem", id)
	}
	return item, nil
}

func (s *ItemService) ListByProject(projectID string) ([]entity.ProjectItem, error) {
	items, err := s.itemRepo.ListByProject(projectID)
	if err != nil {
		return nil, errs.Collaborator("item.list", err)
	}
	return items, nil
}

type UpdateItemRequest struct {
	Name   string   `json:"name"`
	Code   string   `json:"code"`
	QtySet *float64 `json:"qty_set"`
}

// Update 修改产出物。QtySet 变更会级联重算BOM/组件需求；
// 工艺锁定后任务目标量已派生固定，禁止再动数量因子。
func (s *ItemService) Update(id string, req UpdateItemRequest) (*entity.ProjectItem, error) {
	var updated *entity.ProjectItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		itemRepo := s.itemRepo.WithTx(tx)
		item, err := itemRepo.GetByID(id)
		if err != nil {
			return wrapRead(err, "item.update", "ProjectItem", id)
		}

		if req.Name != "" {
			item.Name = req.Name
		}
		if req.Code != "" {
			item.Code = req.Code
		}
		if req.QtySet != nil {
			if item.IsWorkflowLocked {
				return errs.Locked("item.update", "ProjectItem", id)
			}
			if *req.QtySet <= 0 {
				return errs.Validation("item.update", "单套数量必须为正数")
			}
			project, err := s.projectRepo.WithTx(tx).GetByID(item.ProjectID)
			if err != nil {
				return wrapRead(err, "item.update", "Project", item.ProjectID)
			}
			item.QtySet = *req.QtySet
			item.RecalcQuantity(project.TotalQty)

			bomRepo := s.bomRepo.WithTx(tx)
			boms, err := bomRepo.ListByItem(item.ID)
			if err != nil {
				return errs.Collaborator("item.update", err)
			}
			for i := range boms {
				boms[i].RecalcRequired(item.Quantity)
				if err := bomRepo.Update(&boms[i]); err != nil {
					return errs.Collaborator("item.update", err)
				}
			}

			subRepo := s.subRepo.WithTx(tx)
			subs, err := subRepo.ListByItem(item.ID)
			if err != nil {
				return errs.Collaborator("item.update", err)
			}
			for i := range subs {
				subs[i].RecalcNeeded(item.Quantity)
				if err := subRepo.Update(&subs[i]); err != nil {
					return errs.Collaborator("item.update", err)
				}
			}
		}

		if err := itemRepo.Update(item); err != nil {
			return errs.Collaborator("item.update", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// LockBom 锁定BOM结构，单向闩锁
func (s *ItemService) LockBom(id string) (*entity.ProjectItem, error) {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "item.lockBom", "ProjectItem", id)
	}
	if item.IsBomLocked {
		return nil, errs.InvalidState("item.lockBom", "ProjectItem", id, "BOM已锁定")
	}
	item.IsBomLocked = true
	if err := s.itemRepo.Update(item); err != nil {
		return nil, errs.Collaborator("item.lockBom", err)
	}
	return item, nil
}

// Delete 删除产出物；一旦存在任务（工艺已验证）即拒绝
func (s *ItemService) Delete(id string) error {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		return wrapRead(err, "item.delete", "ProjectItem", id)
	}
	if item.IsWorkflowLocked {
		return errs.Locked("item.delete", "ProjectItem", id)
	}
	tasks, err := s.taskRepo.ListByItem(id)
	if err != nil {
		return errs.Collaborator("item.delete", err)
	}
	if len(tasks) > 0 {
		return errs.Conflict("item.delete", "ProjectItem", id, "已有生产任务引用该产出物")
	}
	if err := s.itemRepo.Delete(id); err != nil {
		return errs.Collaborator("item.delete", err)
	}
	return nil
}
