// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"testing"

	"github.com/clawdlabs/rivaldeck/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GetDBConnection gets a connection to the database specified by env.
func GetDBConnection() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// DatabaseSetupAndMigration creates or migrates all tables. Cascading
// deletion board -> column -> post is declared on the models themselves.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	return db.AutoMigrate(&model.Board{}, &model.Column{}, &model.Post{})
}

// CreateTempDB creates an isolated in-memory sqlite database for one test
// case and migrates the full schema into it. Each test gets its own database
// so that cases can run in parallel without bleeding state. The connection is
// dropped together with the test process, no explicit cleanup is needed.
func CreateTempDB(t *testing.T) *gorm.DB {
	t.Helper()
	// sqlite does not enforce foreign keys unless asked to, and the cascade
	// tests depend on it. The pragma travels in the DSN so it applies to
	// every connection the pool opens, a plain Exec would only reach one.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", RandomAlphabetString(10))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("cannot open temp sqlite DB: %v", err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatalf("cannot migrate temp DB: %v", err)
	}
	return db
}
