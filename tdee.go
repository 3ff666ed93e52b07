package main

import (
	"math"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/models"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// It is also the set of valid levels accepted by patchUserSettings.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

const (
	maxPaceKgPerWeek = 0.9
	minPaceKgPerWeek = 0.1
	// 7700 kcal per kg of fat spread over a week.
	kcalPerKgPerWeek = 1100
)

// energyEstimate is the computed BMR/TDEE for a user. Budget and pace are set
// only when there is a weight goal with a target date still ahead.
type energyEstimate struct {
	WeightKg       float64  `json:"weightKg"`
	BMR            int      `json:"bmr"`
	TDEE           int      `json:"tdee"`
	Budget         *int     `json:"budget"`
	PaceKgPerWeek  *float64 `json:"paceKgPerWeek"`
	TargetWeightKg *float64 `json:"targetWeightKg"`
}

// computeEnergy computes BMR (Mifflin-St Jeor) and TDEE from the profile and
// current weight. Returns ok=false when a profile field is missing, the
// activity level is unknown, or the age is implausible.
func computeEnergy(u models.User, weightKg float64, goal *models.Goal, now time.Time) (energyEstimate, bool) {
	if u.Sex == nil || u.DateOfBirth == nil || u.HeightCM == nil || u.ActivityLevel == nil || weightKg <= 0 {
		return energyEstimate{}, false
	}

	dob := u.DateOfBirth.Time
	age := now.Year() - dob.Year()
	if now.Before(dob.AddDate(age, 0, 0)) {
		age--
	}
	if age < 0 || age > 130 {
		return energyEstimate{}, false
	}

	mult, found := activityMultipliers[*u.ActivityLevel]
	if !found {
		return energyEstimate{}, false
	}

	bmr := 10*weightKg + 6.25**u.HeightCM - 5*float64(age)
	if *u.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}
	tdee := bmr * mult

	e := energyEstimate{WeightKg: weightKg, BMR: int(math.Round(bmr)), TDEE: int(math.Round(tdee))}
	if goal == nil {
		return e, true
	}

	weeksUntil := goal.TargetDate.Time.Sub(now).Hours() / 24 / 7
	if weeksUntil <= 0 {
		return e, true
	}
	pace := (weightKg - goal.TargetValue) / weeksUntil
	pace = math.Max(minPaceKgPerWeek, math.Min(maxPaceKgPerWeek, pace))
	budget := int(math.Round(tdee - pace*kcalPerKgPerWeek))
	target := goal.TargetValue

	e.Budget = &budget
	e.PaceKgPerWeek = &pace
	e.TargetWeightKg = &target
	return e, true
}

// latestWeight is the user's most recent body-metric weight, or nil.
func (h *Handler) latestWeight(c *gin.Context, userID uint) (*float64, error) {
	m, err := queryOne[models.BodyMetric](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND weight_kg IS NOT NULL", userID).Order("date DESC, id DESC")
	})
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.WeightKg, nil
}

// loadEnergy loads the profile, latest weight and nearest upcoming weight
// goal. Returns nil (no error) when the profile is incomplete.
func (h *Handler) loadEnergy(c *gin.Context, userID uint) (*energyEstimate, error) {
	u, err := queryOne[models.User](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", userID)
	})
	if err != nil {
		return nil, err
	}
	return h.energyFor(c, u)
}

func (h *Handler) energyFor(c *gin.Context, u models.User) (*energyEstimate, error) {
	weight, err := h.latestWeight(c, u.ID)
	if err != nil || weight == nil {
		return nil, err
	}

	var goal *models.Goal
	g, err := queryOne[models.Goal](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND goal_type = ? AND target_date > ?", u.ID, "weight", h.today()).
			Order("target_date ASC, id ASC")
	})
	switch {
	case err == nil:
		goal = &g
	case !db.IsNotFound(err):
		return nil, err
	}

	e, ok := computeEnergy(u, *weight, goal, h.now())
	if !ok {
		return nil, nil
	}
	return &e, nil
}
