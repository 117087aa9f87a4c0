package service

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
)

// BomService BOM结构维护。
// Allocated/Realized 计数器只归报工引擎管，这里只做结构增删。
type BomService struct {
	bomRepo      *repository.BomRepository
	itemRepo     *repository.ItemRepository
	materialRepo *repository.MaterialRepository
}

func NewBomService(bomRepo *repository.BomRepository, itemRepo *repository.ItemRepository, materialRepo *repository.MaterialRepository) *BomService {
	return &BomService{bomRepo: bomRepo, itemRepo: itemRepo, materialRepo: materialRepo}
}

type AddBomItemRequest struct {
	MaterialID      string  `json:"material_id" binding:"required"`
	QuantityPerUnit float64 `json:"quantity_per_unit" binding:"required,gt=0"`
}

func (s *BomService) Add(itemID string, req AddBomItemRequest) (*entity.BomItem, error) {
	if req.QuantityPerUnit <= 0 {
		return nil, errs.Validation("bom.add", "单件用量必须为正数")
	}

	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, wrapRead(err, "bom.add", "ProjectItem", itemID)
	}
	if item.IsBomLocked {
		return nil, errs.Locked("bom.add", "ProjectItem", itemID)
	}

	if _, err := s.materialRepo.GetByID(req.MaterialID); err != nil {
		return nil, wrapRead(err, "bom.add", "Material", req.MaterialID)
	}

	b := &entity.BomItem{
		ID:              uuid.New().String(),
		ItemID:          item.ID,
		MaterialID:      req.MaterialID,
		QuantityPerUnit: req.QuantityPerUnit,
	}
	b.RecalcRequired(item.Quantity)

	if err := s.bomRepo.Create(b); err != nil {
		return nil, errs.Collaborator("bom.add", err)
	}
	return b, nil
}

func (s *BomService) ListByItem(itemID string) ([]entity.BomItem, error) {
	boms, err := s.bomRepo.ListByItem(itemID)
	if err != nil {
		return nil, errs.Collaborator("bom.list", err)
	}
	return boms, nil
}

func (s *BomService) Delete(bomID string) error {
	b, err := s.bomRepo.GetByID(bomID)
	if err != nil {
		return wrapRead(err, "bom.delete", "BomItem", bomID)
	}
	item, err := s.itemRepo.GetByID(b.ItemID)
	if err != nil {
		return wrapRead(err, "bom.delete", "ProjectItem", b.ItemID)
	}
	if item.IsBomLocked {
		return errs.Locked("bom.delete", "ProjectItem", item.ID)
	}
	if err := s.bomRepo.Delete(bomID); err != nil {
		return errs.Collaborator("bom.delete", err)
	}
	return nil
}
