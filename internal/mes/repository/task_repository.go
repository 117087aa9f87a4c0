package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(t *entity.Task) error {
	return r.db.Create(t).Error
}

func (r *TaskRepository) BatchCreate(tasks []entity.Task) error {
	return r.db.Create(&tasks).Error
}

func (r *TaskRepository) GetByID(id string) (*entity.Task, error) {
	var t entity.Task
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByIDForUpdate 行锁读取，报工计数器的读改写必须在该锁下串行
func (r *TaskRepository) GetByIDForUpdate(id string) (*entity.Task, error) {
	var t entity.Task
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Update(t *entity.Task) error {
	return r.db.Save(t).Error
}

func (r *TaskRepository) ListByItem(itemID string) ([]entity.Task, error) {
	var tasks []entity.Task
	err := r.db.Where("item_id = ? AND deleted_at IS NULL", itemID).
		Order("created_at ASC").Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) ListByItemStep(itemID, step string) ([]entity.Task, error) {
	var tasks []entity.Task
	err := r.db.Where("item_id = ? AND step = ? AND deleted_at IS NULL", itemID, step).
		Find(&tasks).Error
	return tasks, err
}

type TaskListParams struct {
	ProjectID string
	MachineID string
	Status    string
	Page      int
	Size      int
}

func (r *TaskRepository) List(params TaskListParams) ([]entity.Task, int64, error) {
	query := r.db.Model(&entity.Task{}).Where("deleted_at IS NULL")
	if params.ProjectID != "" {
		query = query.Where("project_id = ?", params.ProjectID)
	}
	if params.MachineID != "" {
		query = query.Where("machine_id = ?", params.MachineID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var tasks []entity.Task
	err := query.Order("created_at DESC").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&tasks).Error
	return tasks, total, err
}

// GetActiveByMachine 查找机台上的活跃任务（IN_PROGRESS/DOWNTIME），无则返回nil
func (r *TaskRepository) GetActiveByMachine(machineID, excludeTaskID string) (*entity.Task, error) {
	var t entity.Task
	query := r.db.Where("machine_id = ? AND status IN ? AND deleted_at IS NULL",
		machineID, []string{entity.TaskStatusInProgress, entity.TaskStatusDowntime})
	if excludeTaskID != "" {
		query = query.Where("id <> ?", excludeTaskID)
	}
	err := query.First(&t).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CountWithProgressByItem 统计该产出物下已有产出的任务数（重配工艺的守卫）
func (r *TaskRepository) CountWithProgressByItem(itemID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Task{}).
		Where("item_id = ? AND deleted_at IS NULL AND (completed_qty > 0 OR defect_qty > 0)", itemID).
		Count(&count).Error
	return count, err
}

// CountBySubAssemblySteps 统计引用了指定工序集合的任务数（组件删除守卫）
func (r *TaskRepository) CountBySubAssemblySteps(itemID string, steps []string) (int64, error) {
	if len(steps) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&entity.Task{}).
		Where("item_id = ? AND step IN ? AND deleted_at IS NULL", itemID, steps).
		Count(&count).Error
	return count, err
}

// DeleteByItem 删除该产出物的全部任务（工艺重配时整体替换）
func (r *TaskRepository) DeleteByItem(itemID string) error {
	return r.db.Where("item_id = ?", itemID).Delete(&entity.Task{}).Error
}
