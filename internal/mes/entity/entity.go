package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有MES表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 主数据
		&User{},
		&Material{},
		&Machine{},
		&MachinePersonnel{},

		// 项目分解
		&Project{},
		&ProjectItem{},
		&ItemStepConfig{},
		&BomItem{},
		&SubAssembly{},

		// 执行
		&Task{},
		&ProductionLog{},
	)
}
