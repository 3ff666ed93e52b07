package main

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/models"
)

// sleepEntry is a sleep log plus the parent day's notes.
type sleepEntry struct {
	models.SleepLog
	Notes *string `json:"notes"`
}

type sleepAverages struct {
	TotalMins int `json:"totalMins"`
	DeepMins  int `json:"deepMins"`
	RemMins   int `json:"remMins"`
	CoreMins  int `json:"coreMins"`
	DeepPct   int `json:"deepPct"`
}

// intQuery parses a positive integer query param, falling back to def when
// absent or invalid.
func intQuery(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// userSleep joins sleep logs to their daily log, scoped to userID.
func userSleep(userID uint) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Table("sleep_logs").
			Select("sleep_logs.*, daily_logs.notes AS notes").
			Joins("JOIN daily_logs ON daily_logs.id = sleep_logs.daily_log_id").
			Where("daily_logs.user_id = ?", userID)
	}
}

// listSleep returns the most recent sleep logs, newest first.
// GET /api/sleep?limit=30
func (h *Handler) listSleep(c *gin.Context) {
	userID := c.GetUint("user_id")
	limit := intQuery(c, "limit", 30)

	logs, err := queryMany[sleepEntry](h, c, func(tx *gorm.DB) *gorm.DB {
		return userSleep(userID)(tx).Order("sleep_logs.date DESC").Limit(limit)
	})
	if err != nil {
		h.serverError(c, "failed to fetch sleep logs", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// getSleepTrends returns sleep logs since N days ago, oldest first, with
// averages over the returned nights.
// GET /api/sleep/trends?days=30
func (h *Handler) getSleepTrends(c *gin.Context) {
	userID := c.GetUint("user_id")
	days := intQuery(c, "days", 30)
	since := h.today().AddDays(-days)

	logs, err := queryMany[sleepEntry](h, c, func(tx *gorm.DB) *gorm.DB {
		return userSleep(userID)(tx).Where("sleep_logs.date >= ?", since).Order("sleep_logs.date ASC")
	})
	if err != nil {
		h.serverError(c, "failed to fetch sleep trends", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "averages": averageSleep(logs)})
}

// averageSleep treats missing stage values as zero, like the dashboard does
// for macros.
func averageSleep(logs []sleepEntry) sleepAverages {
	if len(logs) == 0 {
		return sleepAverages{}
	}
	var total, deep, rem, core, deepPct float64
	for _, l := range logs {
		total += float64(l.TotalMins)
		deep += float64(derefInt(l.DeepMins))
		rem += float64(derefInt(l.RemMins))
		core += float64(derefInt(l.CoreMins))
		deepPct += float64(derefInt(l.DeepSleepPct))
	}
	n := float64(len(logs))
	avg := func(sum float64) int { return int(math.Round(sum / n)) }
	return sleepAverages{
		TotalMins: avg(total),
		DeepMins:  avg(deep),
		RemMins:   avg(rem),
		CoreMins:  avg(core),
		DeepPct:   avg(deepPct),
	}
}

// getSleepByDate returns one night with the day's supplements.
// GET /api/sleep/:date
func (h *Handler) getSleepByDate(c *gin.Context) {
	userID := c.GetUint("user_id")
	date, err := models.ParseDate(c.Param("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	entry, err := queryOne[sleepEntry](h, c, func(tx *gorm.DB) *gorm.DB {
		return userSleep(userID)(tx).Where("sleep_logs.date = ?", date)
	})
	if err != nil {
		if db.IsNotFound(err) {
			apiError(c, http.StatusNotFound, "no sleep data for this date")
			return
		}
		h.serverError(c, "failed to fetch sleep log", err)
		return
	}

	supplements, err := queryMany[models.Supplement](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("daily_log_id = ?", entry.DailyLogID).Order("created_at, id")
	})
	if err != nil {
		h.serverError(c, "failed to fetch sleep log", err)
		return
	}

	c.JSON(http.StatusOK, struct {
		sleepEntry
		Supplements []models.Supplement `json:"supplements"`
	}{entry, supplements})
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
