package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

// goalTypes lists the goal kinds the dashboard knows how to display.
var goalTypes = map[string]bool{
	"weight":   true,
	"calories": true,
	"protein":  true,
	"carbs":    true,
	"fat":      true,
	"fibre":    true,
	"steps":    true,
	"sleep":    true,
	"workouts": true,
}

var (
	errInvalidGoalType     = errors.New("goalType must be one of: weight, calories, protein, carbs, fat, fibre, steps, sleep, workouts")
	errTargetValueRequired = errors.New("targetValue must be a non-zero number")
)

type goalRequest struct {
	GoalType    *string        `json:"goalType"`
	TargetValue numfield.Value `json:"targetValue"`
	StartDate   *string        `json:"startDate"`
	TargetDate  *string        `json:"targetDate"`
}

func (r *goalRequest) patch() *patch {
	p := newPatch()
	if r.GoalType != nil && !goalTypes[*r.GoalType] {
		p.fail(errInvalidGoalType)
	}
	p.required("goal_type", "goalType", r.GoalType)
	if r.TargetValue.Present() {
		v, err := r.TargetValue.TruthyFloat()
		switch {
		case err != nil:
			p.fail(err)
		case v == nil:
			p.fail(errTargetValueRequired)
		default:
			p.cols["target_value"] = *v
		}
	}
	p.date("start_date", "startDate", r.StartDate)
	p.date("target_date", "targetDate", r.TargetDate)
	return p
}

// listGoals returns the user's goals, newest first.
// GET /api/goals
func (h *Handler) listGoals(c *gin.Context) {
	userID := c.GetUint("user_id")

	goals, err := queryMany[models.Goal](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	})
	if err != nil {
		h.serverError(c, "failed to fetch goals", err)
		return
	}

	c.JSON(http.StatusOK, goals)
}

// createGoal adds a goal. startDate defaults to today.
// POST /api/goals. Body: { "goalType", "targetValue", "startDate"?, "targetDate" }.
func (h *Handler) createGoal(c *gin.Context) {
	userID := c.GetUint("user_id")

	var body goalRequest
	if !bindJSON(c, &body) {
		return
	}
	if body.GoalType == nil || *body.GoalType == "" || !body.TargetValue.Truthy() {
		apiError(c, http.StatusBadRequest, "goalType and targetValue are required")
		return
	}
	if body.TargetDate == nil || *body.TargetDate == "" {
		apiError(c, http.StatusBadRequest, "targetDate is required")
		return
	}
	p := body.patch()
	if p.err != nil {
		apiError(c, http.StatusBadRequest, p.err.Error())
		return
	}

	g := models.Goal{
		UserID:      userID,
		GoalType:    *body.GoalType,
		TargetValue: p.cols["target_value"].(float64),
		StartDate:   h.today(),
		TargetDate:  p.cols["target_date"].(models.DateOnly),
	}
	if sd, ok := p.cols["start_date"].(models.DateOnly); ok {
		g.StartDate = sd
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&g).Error; err != nil {
		h.serverError(c, "failed to create goal", err)
		return
	}

	c.JSON(http.StatusCreated, g)
}

// updateGoal updates the sent fields of a goal.
// PUT /api/goals/:id
func (h *Handler) updateGoal(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body goalRequest
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

	res := h.db.WithContext(c.Request.Context()).Model(&models.Goal{}).
		Where("id = ? AND user_id = ?", id, userID).Updates(p.cols)
	if res.Error != nil {
		h.serverError(c, "failed to update goal", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, "goal not found")
		return
	}

	h.respondChild(c, http.StatusOK, &models.Goal{}, id, "goal")
}

// deleteGoal removes a goal.
// DELETE /api/goals/:id
func (h *Handler) deleteGoal(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, userID).Delete(&models.Goal{})
	if res.Error != nil {
		h.serverError(c, "failed to delete goal", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, "goal not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
