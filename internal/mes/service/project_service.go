package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectService struct {
	projectRepo *repository.ProjectRepository
	itemRepo    *repository.ItemRepository
	bomRepo     *repository.BomRepository
	subRepo     *repository.SubAssemblyRepository
	db          *gorm.DB
}

func NewProjectService(projectRepo *repository.ProjectRepository, itemRepo *repository.ItemRepository, bomRepo *repository.BomRepository, subRepo *repository.SubAssemblyRepository, db *gorm.DB) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, itemRepo: itemRepo, bomRepo: bomRepo, subRepo: subRepo, db: db}
}

type CreateProjectRequest struct {
	Name           string  `json:"name" binding:"required"`
	QtyPerUnit     float64 `json:"qty_per_unit" binding:"required,gt=0"`
	ProcurementQty float64 `json:"procurement_qty" binding:"required,gt=0"`
	Notes          string  `json:"notes"`
}

func (s *ProjectService) Create(req CreateProjectRequest, userID string) (*entity.Project, error) {
	if req.QtyPerUnit <= 0 || req.ProcurementQty <= 0 {
		return nil, errs.Validation("project.create", "目标数量因子必须为正数")
	}

	now := time.Now()
	p := &entity.Project{
		ID:             uuid.New().String(),
		Code:           fmt.Sprintf("PRJ-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
		Name:           req.Name,
		QtyPerUnit:     req.QtyPerUnit,
		ProcurementQty: req.ProcurementQty,
		Status:         entity.ProjectStatusPlanned,
		Notes:          req.Notes,
		CreatedBy:      userID,
	}
	p.RecalcTotal()

	if err := s.projectRepo.Create(p); err != nil {
		return nil, errs.Collaborator("project.create", err)
	}
	return p, nil
}

func (s *ProjectService) GetByID(id string) (*entity.Project, error) {
	p, err := s.projectRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "project.get", "Project", id)
	}
	return p, nil
}

func (s *ProjectService) List(params repository.ProjectListParams) ([]entity.Project, int64, error) {
	projects, total, err := s.projectRepo.List(params)
	if err != nil {
		return nil, 0, errs.Collaborator("project.list", err)
	}
	return projects, total, nil
}

type UpdateTargetsRequest struct {
	QtyPerUnit     float64 `json:"qty_per_unit" binding:"required,gt=0"`
	ProcurementQty float64 `json:"procurement_qty" binding:"required,gt=0"`
}

// UpdateTargets 修改目标因子并级联重算整条层级：
// project.TotalQty → item.Quantity → bom.TotalRequired / sub.TotalNeeded，单事务完成
func (s *ProjectService) UpdateTargets(id string, req UpdateTargetsRequest) (*entity.Project, error) {
	if req.QtyPerUnit <= 0 || req.ProcurementQty <= 0 {
		return nil, errs.Validation("project.updateTargets", "目标数量因子必须为正数")
	}

	var updated *entity.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		projectRepo := s.projectRepo.WithTx(tx)
		p, err := projectRepo.GetByID(id)
		if err != nil {
			return wrapRead(err, "project.updateTargets", "Project", id)
		}
		if p.IsLocked {
			return errs.Locked("project.updateTargets", "Project", id)
		}

		p.QtyPerUnit = req.QtyPerUnit
		p.ProcurementQty = req.ProcurementQty
		p.RecalcTotal()
		if err := projectRepo.Update(p); err != nil {
			return errs.Collaborator("project.updateTargets", err)
		}

		if err := s.cascadeQuantities(tx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// cascadeQuantities 项目总量变更后逐级重算产出物/BOM/组件的派生数量
func (s *ProjectService) cascadeQuantities(tx *gorm.DB, p *entity.Project) error {
	itemRepo := s.itemRepo.WithTx(tx)
	bomRepo := s.bomRepo.WithTx(tx)
	subRepo := s.subRepo.WithTx(tx)

	items, err := itemRepo.ListByProject(p.ID)
	if err != nil {
		return errs.Collaborator("project.cascade", err)
	}
	for i := range items {
		item := &items[i]
		item.RecalcQuantity(p.TotalQty)
		if err := itemRepo.Update(item); err != nil {
			return errs.Collaborator("project.cascade", err)
		}

		boms, err := bomRepo.ListByItem(item.ID)
		if err != nil {
			return errs.Collaborator("project.cascade", err)
		}
		for j := range boms {
			boms[j].RecalcRequired(item.Quantity)
			if err := bomRepo.Update(&boms[j]); err != nil {
				return errs.Collaborator("project.cascade", err)
			}
		}

		subs, err := subRepo.ListByItem(item.ID)
		if err != nil {
			return errs.Collaborator("project.cascade", err)
		}
		for j := range subs {
			subs[j].RecalcNeeded(item.Quantity)
			if err := subRepo.Update(&subs[j]); err != nil {
				return errs.Collaborator("project.cascade", err)
			}
		}
	}
	return nil
}

// Lock 锁定项目：冻结目标因子，进入 IN_PROGRESS。单向闩锁。
func (s *ProjectService) Lock(id string) (*entity.Project, error) {
	p, err := s.projectRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "project.lock", "Project", id)
	}
	if p.IsLocked {
		return nil, errs.InvalidState("project.lock", "Project", id, "项目已锁定")
	}
	p.IsLocked = true
	if p.Status == entity.ProjectStatusPlanned {
		p.Status = entity.ProjectStatusInProgress
	}
	if err := s.projectRepo.Update(p); err != nil {
		return nil, errs.Collaborator("project.lock", err)
	}
	return p, nil
}

// UpdateStatus 流转项目状态（完成/挂起/取消）
func (s *ProjectService) UpdateStatus(id, status string) (*entity.Project, error) {
	switch status {
	case entity.ProjectStatusCompleted, entity.ProjectStatusOnHold,
		entity.ProjectStatusCancelled, entity.ProjectStatusInProgress:
	default:
		return nil, errs.Validation("project.updateStatus", "非法的项目状态: "+status)
	}
	p, err := s.projectRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "project.updateStatus", "Project", id)
	}
	p.Status = status
	if err := s.projectRepo.Update(p); err != nil {
		return nil, errs.Collaborator("project.updateStatus", err)
	}
	return p, nil
}

func (s *ProjectService) Delete(id string) error {
	p, err := s.projectRepo.GetByID(id)
	if err != nil {
		return wrapRead(err, "project.delete", "Project", id)
	}
	if p.IsLocked {
		return errs.Locked("project.delete", "Project", id)
	}
	if err := s.projectRepo.Delete(id); err != nil {
		return errs.Collaborator("project.delete", err)
	}
	return nil
}
