// Package cli implements fitlogctl, the maintenance CLI that works directly
// against the database: migrations, user creation, bulk imports and goal
// seeding.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/config"
	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/logger"
	"lg/fitness-tracker-api/internal/models"
)

var sqlitePath string

var rootCmd = &cobra.Command{
	Use:           "fitlogctl",
	Short:         "fitlogctl manages the fitness tracker database",
	Long:          "fitlogctl runs migrations, creates users, imports daily log files and seeds goals without going through the HTTP API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "db", "", "Path to a SQLite database (default: DB_DRIVER/DB_URL from the environment)")
}

// openDB connects using --db when given, otherwise the same environment
// configuration as the server. The returned close func releases the pool.
func openDB() (*gorm.DB, config.DBConfig, *zap.Logger, func(), error) {
	log, err := logger.New(logger.Config{Level: "warn"})
	if err != nil {
		return nil, config.DBConfig{}, nil, nil, err
	}

	dbCfg := config.DBConfig{Driver: "sqlite", URL: sqlitePath}
	if sqlitePath == "" {
		cfg, err := config.Load(log)
		if err != nil {
			return nil, dbCfg, nil, nil, err
		}
		dbCfg = cfg.DB
	}

	gdb, err := db.Open(dbCfg, log)
	if err != nil {
		return nil, dbCfg, nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
		log.Sync()
	}
	return gdb, dbCfg, log, closeFn, nil
}

// findUser looks a user up by email, case-insensitively.
func findUser(gdb *gorm.DB, email string) (models.User, error) {
	var u models.User
	err := gdb.Where("email = ?", normalizeEmail(email)).Take(&u).Error
	if db.IsNotFound(err) {
		return u, fmt.Errorf("no user with email %q", email)
	}
	return u, err
}
