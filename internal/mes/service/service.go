package service

import (
	"errors"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services MES 服务集合
type Services struct {
	Auth        *AuthService
	User        *UserService
	Project     *ProjectService
	Item        *ItemService
	Bom         *BomService
	SubAssembly *SubAssemblyService
	Material    *MaterialService
	Machine     *MachineService
	Workflow    *WorkflowService
	Task        *TaskService
	Production  *ProductionService
	Stats       *StatsService
	Export      *ExportService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Services {
	statsSvc := NewStatsService(repos.Item, repos.SubAssembly, repos.Task, repos.Log, repos.Material)
	return &Services{
		Auth:        NewAuthService(repos.User, rdb, cfg),
		User:        NewUserService(repos.User),
		Project:     NewProjectService(repos.Project, repos.Item, repos.Bom, repos.SubAssembly, db),
		Item:        NewItemService(repos.Item, repos.Project, repos.Bom, repos.SubAssembly, repos.Task, db),
		Bom:         NewBomService(repos.Bom, repos.Item, repos.Material),
		SubAssembly: NewSubAssemblyService(repos.SubAssembly, repos.Item, repos.Task, repos.Log, db),
		Material:    NewMaterialService(repos.Material, db),
		Machine:     NewMachineService(repos.Machine, repos.Task, db),
		Workflow:    NewWorkflowService(repos.Item, repos.Task, db),
		Task:        NewTaskService(repos.Task, repos.Machine, db),
		Production:  NewProductionService(repos.Task, repos.Item, repos.Bom, repos.SubAssembly, repos.Material, repos.Machine, repos.Log, db),
		Stats:       statsSvc,
		Export:      NewExportService(repos.Machine, repos.Log, statsSvc),
	}
}

// wrapRead 把仓库读取错误映射为统一分类：记录缺失→NotFound，其余→Collaborator
func wrapRead(err error, op, entityName, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(op, entityName, id)
	}
	return errs.Collaborator(op, err)
}
