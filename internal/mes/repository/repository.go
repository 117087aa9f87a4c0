package repository

import "gorm.io/gorm"

// Repositories MES 仓库集合
type Repositories struct {
	User        *UserRepository
	Project     *ProjectRepository
	Item        *ItemRepository
	Bom         *BomRepository
	SubAssembly *SubAssemblyRepository
	Material    *MaterialRepository
	Machine     *MachineRepository
	Task        *TaskRepository
	Log         *LogRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Project:     NewProjectRepository(db),
		Item:        NewItemRepository(db),
		Bom:         NewBomRepository(db),
		SubAssembly: NewSubAssemblyRepository(db),
		Material:    NewMaterialRepository(db),
		Machine:     NewMachineRepository(db),
		Task:        NewTaskRepository(db),
		Log:         NewLogRepository(db),
	}
}
