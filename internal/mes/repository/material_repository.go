package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) WithTx(tx *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: tx}
}

func (r *MaterialRepository) Create(m *entity.Material) error {
	return r.db.Create(m).Error
}

func (r *MaterialRepository) GetByID(id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByIDForUpdate 行锁读取，供报工扣料事务内使用
func (r *MaterialRepository) GetByIDForUpdate(id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MaterialRepository) Update(m *entity.Material) error {
	return r.db.Save(m).Error
}

func (r *MaterialRepository) Delete(id string) error {
	return r.db.Delete(&entity.Material{}, "id = ?", id).Error
}

type MaterialListParams struct {
	Keyword string
	LowOnly bool
	Page    int
	Size    int
}

func (r *MaterialRepository) List(params MaterialListParams) ([]entity.Material, int64, error) {
	query := r.db.Model(&entity.Material{}).Where("deleted_at IS NULL")
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	if params.LowOnly {
		query = query.Where("current_stock < safety_stock")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var materials []entity.Material
	err := query.Order("code ASC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&materials).Error
	return materials, total, err
}

// ListLowStock 低库存预警列表
func (r *MaterialRepository) ListLowStock() ([]entity.Material, error) {
	var materials []entity.Material
	err := r.db.Where("deleted_at IS NULL AND current_stock < safety_stock").
		Order("code ASC").Find(&materials).Error
	return materials, err
}
