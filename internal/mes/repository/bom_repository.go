package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BomRepository struct {
	db *gorm.DB
}

func NewBomRepository(db *gorm.DB) *BomRepository {
	return &BomRepository{db: db}
}

func (r *BomRepository) WithTx(tx *gorm.DB) *BomRepository {
	return &BomRepository{db: tx}
}

func (r *BomRepository) Create(b *entity.BomItem) error {
	return r.db.Create(b).Error
}

func (r *BomRepository) GetByID(id string) (*entity.BomItem, error) {
	var b entity.BomItem
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BomRepository) Update(b *entity.BomItem) error {
	return r.db.Omit(clause.Associations).Save(b).Error
}

func (r *BomRepository) Delete(id string) error {
	return r.db.Delete(&entity.BomItem{}, "id = ?", id).Error
}

func (r *BomRepository) ListByItem(itemID string) ([]entity.BomItem, error) {
	var boms []entity.BomItem
	err := r.db.Preload("Material").
		Where("item_id = ? AND deleted_at IS NULL", itemID).
		Order("created_at ASC").Find(&boms).Error
	return boms, err
}

// ListByItemForUpdate 行锁读取，供报工事务内使用
func (r *BomRepository) ListByItemForUpdate(itemID string) ([]entity.BomItem, error) {
	var boms []entity.BomItem
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND deleted_at IS NULL", itemID).
		Find(&boms).Error
	return boms, err
}
