package dbhelper

import (
	"os"
	"strconv"
	"testing"
	"time"

	"virtualwardrobe/config"
	"virtualwardrobe/models"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {
	return func() {
		all := db.Session(&gorm.Session{AllowGlobalUpdate: true})
		all.Delete(&models.OutfitLog{})
		all.Delete(&models.CollectionItem{})
		all.Delete(&models.Collection{})
		all.Delete(&models.WardrobeItem{})
		all.Delete(&models.UserPushToken{})
		all.Delete(&models.UserAccount{})
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SetupTestDB connects to the local test database and truncates it when the
// test ends. The test is skipped when postgres is not reachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	port, _ := strconv.Atoi(envOr("TEST_DB_PORT", "5432"))
	db, err := SetupDB(config.DatabaseConfig{
		Host:            envOr("TEST_DB_HOST", "localhost"),
		Port:            port,
		User:            envOr("TEST_DB_USER", "wardrobe"),
		Password:        envOr("TEST_DB_PASSWORD", "wardrobe"),
		Name:            envOr("TEST_DB_NAME", "wardrobe_test"),
		SSLMode:         "disable",
		MaxIdleConns:    2,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	clean := SetupCleaner(db)
	clean()
	t.Cleanup(func() {
		clean()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
