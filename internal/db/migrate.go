package db

import (
	"cicerp/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.Contract{},
		&models.LineItem{},
		&models.ExecutionCost{},
		&models.BusinessPlan{},
		&models.ReviewLog{},
		&models.PlannedPayment{},
		&models.KPISnapshot{},
		&models.SystemSetting{},
	)
}
