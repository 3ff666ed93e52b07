package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/config"
	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/ingest"
	"lg/fitness-tracker-api/internal/models"
)

// Handler holds shared dependencies (db handle, logger, config) for all route handlers.
type Handler struct {
	db        *gorm.DB
	log       *zap.Logger
	ingester  *ingest.Ingester
	loc       *time.Location // calendar for "today" on the dashboard
	uploadDir string
	openAI    config.OpenAIConfig // BaseURL is overridable for tests
	now       func() time.Time
}

func newHandler(gdb *gorm.DB, log *zap.Logger, cfg *config.Config) *Handler {
	return &Handler{
		db:        gdb,
		log:       log,
		ingester:  ingest.New(gdb, log),
		loc:       cfg.Location,
		uploadDir: cfg.UploadDir,
		openAI:    cfg.OpenAI,
		now:       time.Now,
	}
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne applies scope to a request-scoped session and scans one row into T.
// Errors other than a missing row are logged.
func queryOne[T any](h *Handler, c *gin.Context, scope func(*gorm.DB) *gorm.DB) (T, error) {
	var out T
	err := scope(h.db.WithContext(c.Request.Context())).Take(&out).Error
	if err != nil && !db.IsNotFound(err) {
		h.log.Error("query failed", zap.String("model", fmt.Sprintf("%T", out)), zap.Error(err))
	}
	return out, err
}

// queryMany scans all matching rows into []T. The result is never nil, so it
// encodes as [] rather than null.
func queryMany[T any](h *Handler, c *gin.Context, scope func(*gorm.DB) *gorm.DB) ([]T, error) {
	out := []T{}
	err := scope(h.db.WithContext(c.Request.Context())).Find(&out).Error
	if err != nil {
		h.log.Error("query failed", zap.String("model", fmt.Sprintf("%T", out)), zap.Error(err))
	}
	return out, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// serverError logs err with the route and responds 500 with message.
func (h *Handler) serverError(c *gin.Context, message string, err error) {
	h.log.Error(message, zap.String("path", c.FullPath()), zap.Uint("user_id", c.GetUint("user_id")), zap.Error(err))
	apiError(c, http.StatusInternalServerError, message)
}

// notFoundOr500 maps a lookup error to 404 for a missing row, 500 otherwise.
func (h *Handler) notFoundOr500(c *gin.Context, err error, what string) {
	if db.IsNotFound(err) {
		apiError(c, http.StatusNotFound, what+" not found")
		return
	}
	h.serverError(c, "failed to fetch "+what, err)
}

// idParam parses the :id path parameter, responding 400 when it is not a
// positive integer.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apiError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// ownsDailyLog scopes a query on a daily-log child table to rows whose parent
// belongs to userID.
func ownsDailyLog(table string, userID uint) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(table+".daily_log_id IN (?)",
			tx.Session(&gorm.Session{NewDB: true}).Model(&models.DailyLog{}).Select("id").Where("user_id = ?", userID))
	}
}

// today is the current calendar date in the configured time zone.
func (h *Handler) today() models.DateOnly {
	loc := h.loc
	if loc == nil {
		loc = time.Local
	}
	return models.NewDate(h.now().In(loc))
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// requestLogger logs one line per request with method, path, status and latency.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := c.GetUint("user_id"); id != 0 {
			fields = append(fields, zap.Uint("user_id", id))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	// Public routes
	router.POST("/api/auth/login", h.login)
	router.POST("/api/auth/refresh", h.refresh)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())

	api.GET("/logs/:date", h.getDailyLog)
	api.POST("/logs", h.upsertDailyLog)
	api.PUT("/logs/:id", h.updateDailyLog)
	api.DELETE("/logs/:id", h.deleteDailyLog)

	api.POST("/meals", h.createMeal)
	api.PUT("/meals/:id", h.updateMeal)
	api.DELETE("/meals/:id", h.deleteMeal)
	api.POST("/meals/:id/photo", limitBody(maxUploadBytes+formOverheadBytes), h.uploadMealPhoto)

	api.POST("/workouts", h.createWorkout)
	api.PUT("/workouts/:id", h.updateWorkout)
	api.DELETE("/workouts/:id", h.deleteWorkout)

	api.POST("/supplements", h.createSupplement)
	api.PUT("/supplements/:id", h.updateSupplement)
	api.DELETE("/supplements/:id", h.deleteSupplement)

	api.GET("/sleep", h.listSleep)
	api.GET("/sleep/trends", h.getSleepTrends)
	api.GET("/sleep/:date", h.getSleepByDate)

	api.GET("/metrics", h.listBodyMetrics)
	api.POST("/metrics", h.createBodyMetric)
	api.POST("/metrics/photo", limitBody(maxUploadBytes+formOverheadBytes), h.uploadProgressPhoto)
	api.DELETE("/metrics/:id", h.deleteBodyMetric)

	api.GET("/goals", h.listGoals)
	api.POST("/goals", h.createGoal)
	api.PUT("/goals/:id", h.updateGoal)
	api.DELETE("/goals/:id", h.deleteGoal)

	api.GET("/templates", h.listTemplates)
	api.POST("/templates", h.createTemplate)
	api.DELETE("/templates/:id", h.deleteTemplate)

	api.GET("/dashboard/today", h.getDashboardToday)
	api.GET("/dashboard/weekly", h.getDashboardWeekly)
	api.GET("/dashboard/monthly", h.getDashboardMonthly)
	api.GET("/dashboard/total", h.getDashboardTotal)

	api.POST("/import/daily", h.importDaily)
	api.POST("/import/daily/overwrite", h.importDailyOverwrite)
	api.GET("/import/history", h.getImportHistory)
	api.GET("/import/history/:id", h.getImportLog)
	api.GET("/import/schema", h.getImportSchema)

	api.GET("/export/csv", h.exportCSV)

	api.GET("/settings", h.getUserSettings)
	api.PATCH("/settings", h.patchUserSettings)
	api.POST("/suggest", h.suggest)
}

// health reports liveness. GET /health (public).
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}
