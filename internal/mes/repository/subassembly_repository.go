package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubAssemblyRepository struct {
	db *gorm.DB
}

func NewSubAssemblyRepository(db *gorm.DB) *SubAssemblyRepository {
	return &SubAssemblyRepository{db: db}
}

func (r *SubAssemblyRepository) WithTx(tx *gorm.DB) *SubAssemblyRepository {
	return &SubAssemblyRepository{db: tx}
}

func (r *SubAssemblyRepository) Create(s *entity.SubAssembly) error {
	return r.db.Create(s).Error
}

func (r *SubAssemblyRepository) GetByID(id string) (*entity.SubAssembly, error) {
	var s entity.SubAssembly
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByIDForUpdate 行锁读取，供消耗扣减事务内使用
func (r *SubAssemblyRepository) GetByIDForUpdate(id string) (*entity.SubAssembly, error) {
	var s entity.SubAssembly
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubAssemblyRepository) Update(s *entity.SubAssembly) error {
	return r.db.Save(s).Error
}

func (r *SubAssemblyRepository) Delete(id string) error {
	return r.db.Delete(&entity.SubAssembly{}, "id = ?", id).Error
}

func (r *SubAssemblyRepository) ListByItem(itemID string) ([]entity.SubAssembly, error) {
	var subs []entity.SubAssembly
	err := r.db.Where("item_id = ? AND deleted_at IS NULL", itemID).
		Order("created_at ASC").Find(&subs).Error
	return subs, err
}
