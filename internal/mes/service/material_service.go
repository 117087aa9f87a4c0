package service

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterialService 原材料主数据与显式库存调整。
// 报工扣料之外，CurrentStock 只能经 AdjustStock（到货/盘点）变更。
type MaterialService struct {
	materialRepo *repository.MaterialRepository
	db           *gorm.DB
}

func NewMaterialService(materialRepo *repository.MaterialRepository, db *gorm.DB) *MaterialService {
	return &MaterialService{materialRepo: materialRepo, db: db}
}

type CreateMaterialRequest struct {
	Code         string  `json:"code" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Unit         string  `json:"unit"`
	CurrentStock float64 `json:"current_stock"`
	SafetyStock  float64 `json:"safety_stock"`
	PricePerUnit float64 `json:"price_per_unit"`
}

func (s *MaterialService) Create(req CreateMaterialRequest) (*entity.Material, error) {
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	m := &entity.Material{
		ID:           uuid.New().String(),
		Code:         req.Code,
		Name:         req.Name,
		Unit:         unit,
		CurrentStock: req.CurrentStock,
		SafetyStock:  req.SafetyStock,
		PricePerUnit: req.PricePerUnit,
	}
	if err := s.materialRepo.Create(m); err != nil {
		return nil, errs.Collaborator("material.create", err)
	}
	return m, nil
}

func (s *MaterialService) GetByID(id string) (*entity.Material, error) {
	m, err := s.materialRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "material.get", "Material", id)
	}
	return m, nil
}

func (s *MaterialService) List(params repository.MaterialListParams) ([]entity.Material, int64, error) {
	materials, total, err := s.materialRepo.List(params)
	if err != nil {
		return nil, 0, errs.Collaborator("material.list", err)
	}
	return materials, total, nil
}

type UpdateMaterialRequest struct {
	Name         string   `json:"name"`
	Unit         string   `json:"unit"`
	SafetyStock  *float64 `json:"safety_stock"`
	PricePerUnit *float64 `json:"price_per_unit"`
}

// Update 修改主数据。CurrentStock 不在此处更新——库存只走报工扣料或显式调整。
func (s *MaterialService) Update(id string, req UpdateMaterialRequest) (*entity.Material, error) {
	m, err := s.materialRepo.GetByID(id)
	if err != nil {
		return nil, wrapRead(err, "material.update", "Material", id)
	}
	if req.Name != "" {
		m.Name = req.Name
	}
	if req.Unit != "" {
		m.Unit = req.Unit
	}
	if req.SafetyStock != nil {
		if *req.SafetyStock < 0 {
			return nil, errs.Validation("material.update", "安全库存不能为负数")
		}
		m.SafetyStock = *req.SafetyStock
	}
	if req.PricePerUnit != nil {
		if *req.PricePerUnit < 0 {
			return nil, errs.Validation("material.update", "单价不能为负数")
		}
		m.PricePerUnit = *req.PricePerUnit
	}
	if err := s.materialRepo.Update(m); err != nil {
		return nil, errs.Collaborator("material.update", err)
	}
	return m, nil
}

type AdjustStockRequest struct {
	AdjustQty  float64 `json:"adjust_qty" binding:"required"`
	AdjustType string  `json:"adjust_type" binding:"required"`
	Reason     string  `json:"reason"`
}

// AdjustStock 显式库存调整（采购到货为正、盘点可正可负），行锁下原子完成
func (s *MaterialService) AdjustStock(id string, req AdjustStockRequest) (*entity.Material, error) {
	if req.AdjustQty == 0 {
		return nil, errs.Validation("material.adjustStock", "调整数量不能为零")
	}
	switch req.AdjustType {
	case entity.AdjustTypeProcurement:
		if req.AdjustQty < 0 {
			return nil, errs.Validation("material.adjustStock", "采购到货数量必须为正数")
		}
	case entity.AdjustTypeManual:
	default:
		return nil, errs.Validation("material.adjustStock", "非法调整类型: "+req.AdjustType)
	}

	var result *entity.Material
	err := s.db.Transaction(func(tx *gorm.DB) error {
		materialRepo := s.materialRepo.WithTx(tx)
		m, err := materialRepo.GetByIDForUpdate(id)
		if err != nil {
			return wrapRead(err, "material.adjustStock", "Material", id)
		}
		m.CurrentStock += req.AdjustQty
		if err := materialRepo.Update(m); err != nil {
			return errs.Collaborator("material.adjustStock", err)
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MaterialService) Delete(id string) error {
	if _, err := s.materialRepo.GetByID(id); err != nil {
		return wrapRead(err, "material.delete", "Material", id)
	}
	if err := s.materialRepo.Delete(id); err != nil {
		return errs.Collaborator("material.delete", err)
	}
	return nil
}
