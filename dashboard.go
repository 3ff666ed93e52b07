package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/dashboard"
	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/models"
)

type weightPoint struct {
	Date     models.DateOnly `json:"date"`
	WeightKg *float64        `json:"weightKg"`
}

// getDashboardToday summarizes today's log with goals, the recent weight
// trend and the energy estimate.
// GET /api/dashboard/today
func (h *Handler) getDashboardToday(c *gin.Context) {
	userID := c.GetUint("user_id")
	today := h.today()

	var log *models.DailyLog
	found, err := queryOne[models.DailyLog](h, c, func(tx *gorm.DB) *gorm.DB {
		return withDayChildren(tx).Where("user_id = ? AND date = ?", userID, today)
	})
	switch {
	case err == nil:
		found.EnsureSlices()
		log = &found
	case !db.IsNotFound(err):
		h.serverError(c, "failed to fetch dashboard", err)
		return
	}

	day := dashboard.Day{Date: today}
	supplements := []models.Supplement{}
	if log != nil {
		day = dashboard.SumDay(*log)
		supplements = log.Supplements
	}

	goals, err := h.userGoals(c, userID)
	if err != nil {
		h.serverError(c, "failed to fetch dashboard", err)
		return
	}

	// Last 7 samples, returned oldest first for charting.
	trend, err := queryMany[weightPoint](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.BodyMetric{}).Select("date, weight_kg").
			Where("user_id = ?", userID).Order("date DESC, id DESC").Limit(7)
	})
	if err != nil {
		h.serverError(c, "failed to fetch dashboard", err)
		return
	}
	for i, j := 0, len(trend)-1; i < j; i, j = i+1, j-1 {
		trend[i], trend[j] = trend[j], trend[i]
	}

	energy, err := h.loadEnergy(c, userID)
	if err != nil {
		h.serverError(c, "failed to fetch dashboard", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date": today,
		"log":  log,
		"macros": gin.H{
			"calories": day.Calories,
			"protein":  day.ProteinG,
			"carbs":    day.CarbsG,
			"fat":      day.FatG,
			"fibre":    day.FibreG,
		},
		"exercise": gin.H{
			"activeCalories": day.ActiveCalories,
			"totalMins":      day.WorkoutMins,
			"workoutCount":   day.WorkoutCount,
		},
		"netCalories": day.NetCalories,
		"supplements": supplements,
		"goals":       goals,
		"weightTrend": trend,
		"energy":      energy,
	})
}

// getDashboardWeekly returns per-day totals for the trailing seven days.
// GET /api/dashboard/weekly
func (h *Handler) getDashboardWeekly(c *gin.Context) {
	userID := c.GetUint("user_id")
	w := dashboard.Weekly(h.today())

	days, err := h.daysInWindow(c, userID, &w.Start, w.End)
	if err != nil {
		h.serverError(c, "failed to fetch weekly dashboard", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"startDate":     w.Start,
		"endDate":       w.End,
		"days":          days,
		"averages":      dashboard.Average(days),
		"totalWorkouts": dashboard.TotalWorkouts(days),
	})
}

// getDashboardMonthly returns per-day totals and weight samples for the
// trailing thirty days.
// GET /api/dashboard/monthly
func (h *Handler) getDashboardMonthly(c *gin.Context) {
	userID := c.GetUint("user_id")
	w := dashboard.Monthly(h.today())

	body, err := h.rollup(c, userID, &w.Start, w.End)
	if err != nil {
		h.serverError(c, "failed to fetch monthly dashboard", err)
		return
	}

	c.JSON(http.StatusOK, body)
}

// getDashboardTotal is the monthly view over all time, plus goals. The
// window starts at the user's earliest log.
// GET /api/dashboard/total
func (h *Handler) getDashboardTotal(c *gin.Context) {
	userID := c.GetUint("user_id")
	today := h.today()

	body, err := h.rollup(c, userID, nil, today)
	if err != nil {
		h.serverError(c, "failed to fetch total dashboard", err)
		return
	}
	goals, err := h.userGoals(c, userID)
	if err != nil {
		h.serverError(c, "failed to fetch total dashboard", err)
		return
	}
	body["goals"] = goals

	c.JSON(http.StatusOK, body)
}

// rollup builds the monthly/total response. A nil start means unbounded.
func (h *Handler) rollup(c *gin.Context, userID uint, start *models.DateOnly, end models.DateOnly) (gin.H, error) {
	days, err := h.daysInWindow(c, userID, start, end)
	if err != nil {
		return nil, err
	}
	weights, err := queryMany[weightPoint](h, c, func(tx *gorm.DB) *gorm.DB {
		tx = tx.Model(&models.BodyMetric{}).Select("date, weight_kg").
			Where("user_id = ? AND date <= ? AND weight_kg IS NOT NULL", userID, end)
		if start != nil {
			tx = tx.Where("date >= ?", *start)
		}
		return tx.Order("date ASC, id ASC")
	})
	if err != nil {
		return nil, err
	}

	startDate := end
	if start != nil {
		startDate = *start
	} else if len(days) > 0 {
		startDate = days[0].Date
	}

	return gin.H{
		"startDate":     startDate,
		"endDate":       end,
		"days":          days,
		"averages":      dashboard.Average(days),
		"weightData":    weights,
		"daysLogged":    len(days),
		"totalWorkouts": dashboard.TotalWorkouts(days),
	}, nil
}

// daysInWindow loads the user's logs with meals and workouts and reduces
// each to its totals, oldest first.
func (h *Handler) daysInWindow(c *gin.Context, userID uint, start *models.DateOnly, end models.DateOnly) ([]dashboard.Day, error) {
	logs, err := queryMany[models.DailyLog](h, c, func(tx *gorm.DB) *gorm.DB {
		tx = tx.Preload("Meals").Preload("Workouts").
			Where("user_id = ? AND date <= ?", userID, end)
		if start != nil {
			tx = tx.Where("date >= ?", *start)
		}
		return tx.Order("date ASC")
	})
	if err != nil {
		return nil, err
	}
	return dashboard.SumDays(logs), nil
}

func (h *Handler) userGoals(c *gin.Context, userID uint) ([]models.Goal, error) {
	return queryMany[models.Goal](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	})
}
