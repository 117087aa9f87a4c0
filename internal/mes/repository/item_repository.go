package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) WithTx(tx *gorm.DB) *ItemRepository {
	return &ItemRepository{db: tx}
}

func (r *ItemRepository) Create(item *entity.ProjectItem) error {
	return r.db.Create(item).Error
}

func (r *ItemRepository) GetByID(id string) (*entity.ProjectItem, error) {
	var item entity.ProjectItem
	err := r.db.Preload("Workflow", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Where("id = ? AND deleted_at IS NULL", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update 只落主表字段。预加载的 Workflow 等关联不随 Save 回写，
// 否则会把已被 ReplaceWorkflow 删除的旧工序配置重新插回去。
func (r *ItemRepository) Update(item *entity.ProjectItem) error {
	return r.db.Omit(clause.Associations).Save(item).Error
}

func (r *ItemRepository) Delete(id string) error {
	return r.db.Delete(&entity.ProjectItem{}, "id = ?", id).Error
}

func (r *ItemRepository) ListByProject(projectID string) ([]entity.ProjectItem, error) {
	var items []entity.ProjectItem
	err := r.db.Preload("Workflow", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Where("project_id = ? AND deleted_at IS NULL", projectID).
		Order("created_at ASC").Find(&items).Error
	return items, err
}

// ReplaceWorkflow 整体替换工艺流程配置
func (r *ItemRepository) ReplaceWorkflow(itemID string, configs []entity.ItemStepConfig) error {
	if err := r.db.Where("item_id = ?", itemID).Delete(&entity.ItemStepConfig{}).Error; err != nil {
		return err
	}
	if len(configs) == 0 {
		return nil
	}
	return r.db.Create(&configs).Error
}

func (r *ItemRepository) GetWorkflow(itemID string) ([]entity.ItemStepConfig, error) {
	var configs []entity.ItemStepConfig
	err := r.db.Where("item_id = ?", itemID).Order("sequence ASC").Find(&configs).Error
	return configs, err
}
