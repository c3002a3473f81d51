package models

import (
	"fmt"

	"github.com/samuq/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

// AllModels lists every table managed by AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&SystemLog{},
		&ChecklistSubmission{},
		&DigestLog{},
		&SearchLogEntry{},
		&AskedTerm{},
		&Question{},
		&Category{},
		&Tag{},
		&Rule{},
		&RuleCard{},
		&RuleBullet{},
	}
}

func AutoMigrate() error {
	if err := DB.AutoMigrate(AllModels()...); err != nil {
		return err
	}
	for _, stmt := range collationFixes(DB.Dialector.Name()) {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to set column collation: %w", err)
		}
	}
	return nil
}

// collationFixes returns the statements that keep exact-match columns case and
// accent sensitive. MySQL's default utf8mb4 collation folds both; sqlite and
// postgres compare bytes already.
func collationFixes(dialect string) []string {
	if dialect != "mysql" {
		return nil
	}
	return []string{
		"ALTER TABLE asked_terms MODIFY term VARCHAR(200) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
	}
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates the rulebook categories if none exist
func SeedDefaultData() error {
	var count int64
	DB.Model(&Category{}).Count(&count)
	if count > 0 {
		return nil
	}

	defaults := []Category{
		{Name: "Segurança da cena", Slug: "seguranca-da-cena"},
		{Name: "Biossegurança", Slug: "biosseguranca"},
		{Name: "Comunicação", Slug: "comunicacao"},
		{Name: "Recusa de atendimento", Slug: "recusa-de-atendimento"},
	}
	for _, c := range defaults {
		if err := DB.Create(&c).Error; err != nil {
			return err
		}
	}
	return nil
}
