package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

func (r *ProjectRepository) Create(p *entity.Project) error {
	return r.db.Create(p).Error
}

func (r *ProjectRepository) GetByID(id string) (*entity.Project, error) {
	var p entity.Project
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Update(p *entity.Project) error {
	return r.db.Save(p).Error
}

func (r *ProjectRepository) Delete(id string) error {
	return r.db.Delete(&entity.Project{}, "id = ?", id).Error
}

type ProjectListParams struct {
	Status  string
	Keyword string
	Page    int
	Size    int
}

func (r *ProjectRepository) List(params ProjectListParams) ([]entity.Project, int64, error) {
	query := r.db.Model(&entity.Project{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var projects []entity.Project
	err := query.Order("created_at DESC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&projects).Error
	return projects, total, err
}
