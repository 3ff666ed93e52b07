package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

var (
	errInvalidSex           = errors.New("sex must be one of: male, female")
	errInvalidActivityLevel = errors.New("activityLevel must be one of: sedentary, light, moderate, active, very_active")
)

// userSettings is the profile plus the energy estimate derived from it.
// Energy is null until sex, date of birth, height, activity level and at
// least one weight sample are known.
type userSettings struct {
	models.User
	Energy *energyEstimate `json:"energy"`
}

// patchUserSettingsRequest uses pointer fields so "not provided" is distinct
// from a value. Empty strings clear the optional fields.
type patchUserSettingsRequest struct {
	Name          *string        `json:"name"`
	Sex           *string        `json:"sex"`
	DateOfBirth   *string        `json:"dateOfBirth"`
	HeightCM      numfield.Value `json:"heightCm"`
	ActivityLevel *string        `json:"activityLevel"`
}

func (r *patchUserSettingsRequest) patch() *patch {
	p := newPatch()
	p.required("name", "name", r.Name)
	if r.Sex != nil && *r.Sex != "" && *r.Sex != "male" && *r.Sex != "female" {
		p.fail(errInvalidSex)
	}
	p.str("sex", r.Sex)
	if r.DateOfBirth != nil && *r.DateOfBirth == "" {
		p.cols["date_of_birth"] = nil
	} else {
		p.date("date_of_birth", "dateOfBirth", r.DateOfBirth)
	}
	p.truthyFloat("height_cm", "heightCm", r.HeightCM)
	if r.ActivityLevel != nil && *r.ActivityLevel != "" {
		if _, ok := activityMultipliers[*r.ActivityLevel]; !ok {
			p.fail(errInvalidActivityLevel)
		}
	}
	p.str("activity_level", r.ActivityLevel)
	return p
}

// getUserSettings returns the profile for the authenticated user.
// GET /api/settings
func (h *Handler) getUserSettings(c *gin.Context) {
	userID := c.GetUint("user_id")

	u, err := queryOne[models.User](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", userID)
	})
	if err != nil {
		h.notFoundOr500(c, err, "settings")
		return
	}
	h.respondSettings(c, u)
}

// patchUserSettings updates only the profile fields the client sent.
// PATCH /api/settings
func (h *Handler) patchUserSettings(c *gin.Context) {
	userID := c.GetUint("user_id")

	var body patchUserSettingsRequest
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

	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("id = ?", userID).Updates(p.cols)
	if res.Error != nil {
		h.serverError(c, "failed to update settings", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, "settings not found")
		return
	}

	u, err := queryOne[models.User](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", userID)
	})
	if err != nil {
		h.notFoundOr500(c, err, "settings")
		return
	}
	h.respondSettings(c, u)
}

func (h *Handler) respondSettings(c *gin.Context, u models.User) {
	energy, err := h.energyFor(c, u)
	if err != nil {
		h.serverError(c, "failed to compute energy estimate", err)
		return
	}
	c.JSON(http.StatusOK, userSettings{User: u, Energy: energy})
}
