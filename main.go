package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/config"
	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/logger"
)

func main() {
	// Bootstrap logger until LOG_LEVEL/LOG_FILE are known.
	boot, _ := zap.NewProduction()

	cfg, err := config.Load(boot)
	if err != nil {
		boot.Fatal("invalid configuration", zap.Error(err))
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		boot.Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()

	gdb, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to open database", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(context.Background(), gdb, cfg.DB.Driver); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	for _, sub := range []string{uploadMeals, uploadPhotos} {
		if err := os.MkdirAll(filepath.Join(cfg.UploadDir, sub), 0o755); err != nil {
			log.Fatal("failed to create upload directory", zap.String("dir", cfg.UploadDir), zap.Error(err))
		}
	}

	scheduler, err := startJobs(gdb, log)
	if err != nil {
		log.Fatal("failed to schedule jobs", zap.Error(err))
	}
	defer scheduler.Stop()

	router := newRouter(newHandler(gdb, log, cfg), cfg, log)

	log.Info("starting server", zap.String("port", cfg.Port), zap.String("driver", cfg.DB.Driver))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// newRouter builds the gin engine: API routes, uploaded files, and the SPA
// bundle (when PUBLIC_DIR exists) with index.html as the fallback for
// non-API paths.
func newRouter(h *Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	router.SetTrustedProxies(nil)

	h.registerRoutes(router)
	router.Static("/uploads", cfg.UploadDir)

	index := filepath.Join(cfg.PublicDir, "index.html")
	if info, err := os.Stat(cfg.PublicDir); err == nil && info.IsDir() {
		files := http.Dir(cfg.PublicDir)
		router.NoRoute(func(c *gin.Context) {
			path := c.Request.URL.Path
			if strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
				apiError(c, http.StatusNotFound, "not found")
				return
			}
			if f, err := files.Open(path); err == nil {
				stat, statErr := f.Stat()
				f.Close()
				if statErr == nil && !stat.IsDir() {
					c.FileFromFS(path, files)
					return
				}
			}
			c.File(index)
		})
	} else {
		router.NoRoute(func(c *gin.Context) {
			apiError(c, http.StatusNotFound, "not found")
		})
	}

	return router
}

// startJobs schedules background maintenance. Expired sessions are pruned
// hourly.
func startJobs(gdb *gorm.DB, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		n, err := pruneSessions(context.Background(), gdb, time.Now().UTC())
		if err != nil {
			log.Error("failed to prune sessions", zap.Error(err))
			return
		}
		log.Info("pruned expired sessions", zap.Int64("count", n))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule session pruning: %w", err)
	}
	c.Start()
	return c, nil
}
