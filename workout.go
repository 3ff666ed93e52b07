package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

type workoutRequest struct {
	DailyLogID     uint           `json:"dailyLogId"`
	Type           *string        `json:"type"`
	StartTime      *string        `json:"startTime"`
	EndTime        *string        `json:"endTime"`
	DurationMins   numfield.Value `json:"durationMins"`
	ActiveCalories numfield.Value `json:"activeCalories"`
	TotalCalories  numfield.Value `json:"totalCalories"`
	AvgHeartRate   numfield.Value `json:"avgHeartRate"`
	MaxHeartRate   numfield.Value `json:"maxHeartRate"`
	DistanceKm     numfield.Value `json:"distanceKm"`
	AvgPace        *string        `json:"avgPace"`
	EffortLevel    numfield.Value `json:"effortLevel"`
	Notes          *string        `json:"notes"`
}

func (r *workoutRequest) patch() *patch {
	p := newPatch()
	p.required("type", "type", r.Type)
	p.str("start_time", r.StartTime)
	p.str("end_time", r.EndTime)
	p.truthyInt("duration_mins", "durationMins", r.DurationMins)
	p.truthyFloat("active_calories", "activeCalories", r.ActiveCalories)
	p.truthyFloat("total_calories", "totalCalories", r.TotalCalories)
	p.truthyInt("avg_heart_rate", "avgHeartRate", r.AvgHeartRate)
	p.truthyInt("max_heart_rate", "maxHeartRate", r.MaxHeartRate)
	p.truthyFloat("distance_km", "distanceKm", r.DistanceKm)
	p.str("avg_pace", r.AvgPace)
	p.truthyInt("effort_level", "effortLevel", r.EffortLevel)
	p.str("notes", r.Notes)
	return p
}

// createWorkout adds a workout to one of the user's logs.
// POST /api/workouts. dailyLogId and type are required.
func (h *Handler) createWorkout(c *gin.Context) {
	var body workoutRequest
	if !bindJSON(c, &body) {
		return
	}
	if body.DailyLogID == 0 || body.Type == nil || *body.Type == "" {
		apiError(c, http.StatusBadRequest, "dailyLogId and type are required")
		return
	}
	p := body.patch()
	if p.err != nil {
		apiError(c, http.StatusBadRequest, p.err.Error())
		return
	}
	if !h.requireOwnedLog(c, body.DailyLogID) {
		return
	}

	w := models.Workout{DailyLogID: body.DailyLogID, Type: *body.Type}
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		return tx.Model(&w).Updates(p.cols).Error
	})
	if err != nil {
		h.serverError(c, "failed to create workout", err)
		return
	}

	h.respondChild(c, http.StatusCreated, &models.Workout{}, w.ID, "workout")
}

// updateWorkout updates the sent fields of a workout.
// PUT /api/workouts/:id
func (h *Handler) updateWorkout(c *gin.Context) {
	var body workoutRequest
	h.updateChild(c, "workouts", &models.Workout{}, "workout", &body, body.patch)
}

// deleteWorkout removes a workout.
// DELETE /api/workouts/:id
func (h *Handler) deleteWorkout(c *gin.Context) {
	h.deleteChild(c, "workouts", &models.Workout{}, "workout")
}

/* ─── Shared child-row handlers ───────────────────────────────────────── */

// updateChild binds body, builds the patch and applies it to a child row of
// one of the user's daily logs.
func (h *Handler) updateChild(c *gin.Context, table string, model any, what string, body any, build func() *patch) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}
	if !bindJSON(c, body) {
		return
	}
	p := build()
	if p.err != nil {
		apiError(c, http.StatusBadRequest, p.err.Error())
		return
	}
	if p.empty() {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	res := ownsDailyLog(table, userID)(h.db.WithContext(c.Request.Context()).Model(model)).
		Where(table+".id = ?", id).Updates(p.cols)
	if res.Error != nil {
		h.serverError(c, "failed to update "+what, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, what+" not found")
		return
	}

	h.respondChild(c, http.StatusOK, model, id, what)
}

func (h *Handler) deleteChild(c *gin.Context, table string, model any, what string) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	res := ownsDailyLog(table, userID)(h.db.WithContext(c.Request.Context())).
		Where(table+".id = ?", id).Delete(model)
	if res.Error != nil {
		h.serverError(c, "failed to delete "+what, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, what+" not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondChild reloads the row into model and writes it.
func (h *Handler) respondChild(c *gin.Context, status int, model any, id uint, what string) {
	if err := h.db.WithContext(c.Request.Context()).Where("id = ?", id).Take(model).Error; err != nil {
		h.notFoundOr500(c, err, what)
		return
	}
	c.JSON(status, model)
}
