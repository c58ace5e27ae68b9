package database

import (
	"rbadmin/internal/models"
	"rbadmin/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.PolicyRule{},
		&models.Menu{},
		&models.RoleMenu{},
		&models.Api{},
		// 业务示例
		&models.Article{},
		&models.Project{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")

	// 种子数据初始化将在 main.go 中单独调用，避免循环依赖

	return nil
}
