package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db     *gorm.DB
	kvRepo *KVRepo
}

// New wraps an open gorm connection. The schema must already be migrated.
func New(db *gorm.DB) Database {
	return Database{
		db:     db,
		kvRepo: NewKVRepo(db),
	}
}

// Open connects to Postgres using DATABASE_URL or the SUPABASE_DB_* family,
// checks the connection and migrates the storage tables.
func Open(c map[string]string) (Database, error) {
	dsn := DSN(c)
	if dsn == "" {
		return Database{}, fmt.Errorf("no database connection configured")
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return Database{}, fmt.Errorf("connect to database: %w", err)
	}

	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return Database{}, fmt.Errorf("test database connection: %w", err)
	}

	if err := models.Migrate(db); err != nil {
		return Database{}, err
	}

	return New(db), nil
}

// DSN builds the Postgres connection string from config.
func DSN(c map[string]string) string {
	if url := config.GetString(c, "DATABASE_URL", ""); url != "" {
		return url
	}
	host := config.GetString(c, "SUPABASE_DB_HOST", "")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host,
		config.GetString(c, "SUPABASE_DB_USER", ""),
		config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
		config.GetString(c, "SUPABASE_DB_NAME", ""),
		config.GetString(c, "SUPABASE_DB_PORT", "5432"),
		config.GetString(c, "SUPABASE_DB_SSLMODE", "require"),
	)
}

func (d Database) DB() *gorm.DB {
	return d.db
}

func (d Database) KVRepo() *KVRepo {
	return d.kvRepo
}

func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
