package db

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// AllModels lists every table in dependency order.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Session{},
		&models.DailyLog{},
		&models.SleepLog{},
		&models.Workout{},
		&models.Meal{},
		&models.MealComponent{},
		&models.Supplement{},
		&models.ActivityRings{},
		&models.BodyMetric{},
		&models.Goal{},
		&models.MealTemplate{},
		&models.ImportLog{},
	}
}

// AutoMigrate creates or updates the schema from the models. Used for SQLite;
// PostgreSQL deployments run the versioned SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// RunMigrations applies pending embedded PostgreSQL migrations with goose.
// Each file runs in its own transaction and is recorded in goose_db_version.
func RunMigrations(ctx context.Context, db *gorm.DB) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, err
	}
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	before, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return 0, err
	}
	after, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return int(after - before), nil
}

// Migrate brings the schema up to date for the given driver.
func Migrate(ctx context.Context, db *gorm.DB, driver string) error {
	if driver == "sqlite" {
		return AutoMigrate(db)
	}
	_, err := RunMigrations(ctx, db)
	return err
}
