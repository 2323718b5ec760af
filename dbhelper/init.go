package dbhelper

import (
	"virtualwardrobe/config"
	"virtualwardrobe/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := MigrateAll(db); err != nil {
		return nil, err
	}
	return db, nil
}

func MigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserAccount{},
		&models.UserPushToken{},
		&models.WardrobeItem{},
		&models.Collection{},
		&models.CollectionItem{},
		&models.OutfitLog{},
	)
}
