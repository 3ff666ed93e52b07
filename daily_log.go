package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

func orderByCreated(tx *gorm.DB) *gorm.DB {
	return tx.Order("created_at ASC, id ASC")
}

// withDayChildren preloads everything a daily log view shows, children in
// creation order.
func withDayChildren(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Meals", orderByCreated).
		Preload("Meals.Components").
		Preload("Workouts", orderByCreated).
		Preload("Supplements", orderByCreated).
		Preload("SleepLog").
		Preload("ActivityRings")
}

// getDailyLog returns the full log for a date, or an empty shell when nothing
// was logged that day.
// GET /api/logs/:date
func (h *Handler) getDailyLog(c *gin.Context) {
	userID := c.GetUint("user_id")
	date, err := models.ParseDate(c.Param("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	log, err := queryOne[models.DailyLog](h, c, func(tx *gorm.DB) *gorm.DB {
		return withDayChildren(tx).Where("user_id = ? AND date = ?", userID, date)
	})
	if db.IsNotFound(err) {
		c.JSON(http.StatusOK, gin.H{
			"date":        date,
			"meals":       []models.Meal{},
			"workouts":    []models.Workout{},
			"supplements": []models.Supplement{},
		})
		return
	}
	if err != nil {
		h.serverError(c, "failed to fetch log", err)
		return
	}

	log.EnsureSlices()
	c.JSON(http.StatusOK, log)
}

type dailyLogRequest struct {
	Date      *string        `json:"date"`
	WeightKg  numfield.Value `json:"weightKg"`
	WakeTime  *string        `json:"wakeTime"`
	SleepTime *string        `json:"sleepTime"`
	Notes     *string        `json:"notes"`
}

func (r *dailyLogRequest) patch() *patch {
	p := newPatch()
	p.truthyFloat("weight_kg", "weightKg", r.WeightKg)
	p.str("wake_time", r.WakeTime)
	p.str("sleep_time", r.SleepTime)
	p.str("notes", r.Notes)
	return p
}

// upsertDailyLog creates the log for a date, or updates the sent fields when
// one already exists.
// POST /api/logs. Body: { "date", "weightKg"?, "wakeTime"?, "sleepTime"?, "notes"? }
func (h *Handler) upsertDailyLog(c *gin.Context) {
	userID := c.GetUint("user_id")

	var body dailyLogRequest
	if !bindJSON(c, &body) {
		return
	}
	if body.Date == nil || *body.Date == "" {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	date, err := models.ParseDate(*body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	p := body.patch()
	if p.err != nil {
		apiError(c, http.StatusBadRequest, p.err.Error())
		return
	}

	var logID uint
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing models.DailyLog
		err := tx.Select("id").Where("user_id = ? AND date = ?", userID, date).Take(&existing).Error
		switch {
		case err == nil:
			logID = existing.ID
			if p.empty() {
				return nil
			}
			return tx.Model(&existing).Updates(p.cols).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			log := models.DailyLog{UserID: userID, Date: date}
			if err := tx.Create(&log).Error; err != nil {
				return err
			}
			logID = log.ID
			if p.empty() {
				return nil
			}
			return tx.Model(&log).Updates(p.cols).Error
		default:
			return err
		}
	})
	if db.IsUniqueViolation(err) {
		apiError(c, http.StatusConflict, "log for this date was created concurrently, retry")
		return
	}
	if err != nil {
		h.serverError(c, "failed to save log", err)
		return
	}

	h.respondDailyLog(c, http.StatusOK, logID)
}

// updateDailyLog partially updates a log owned by the user.
// PUT /api/logs/:id. Body: any of { "weightKg", "wakeTime", "sleepTime", "notes" }.
func (h *Handler) updateDailyLog(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body dailyLogRequest
	if !bindJSON(c, &body) {
		return
	}
	p := body.patch()
	if p.err != nil {
		apiError(c, http.StatusBadRequest, p.err.Error())
		return
	}
	if p.empty() {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.DailyLog{}).
		Where("id = ? AND user_id = ?", id, userID).Updates(p.cols)
	if res.Error != nil {
		h.serverError(c, "failed to update log", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, "log not found")
		return
	}

	h.respondDailyLog(c, http.StatusOK, id)
}

// deleteDailyLog removes a log and, through FK cascades, all of its children.
// DELETE /api/logs/:id
func (h *Handler) deleteDailyLog(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, userID).Delete(&models.DailyLog{})
	if res.Error != nil {
		h.serverError(c, "failed to delete log", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, "log not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) respondDailyLog(c *gin.Context, status int, id uint) {
	log, err := queryOne[models.DailyLog](h, c, func(tx *gorm.DB) *gorm.DB {
		return withDayChildren(tx).Where("id = ?", id)
	})
	if err != nil {
		h.notFoundOr500(c, err, "log")
		return
	}
	log.EnsureSlices()
	c.JSON(status, log)
}
