package main

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

// listTemplates returns saved meals, newest first.
// GET /api/templates
func (h *Handler) listTemplates(c *gin.Context) {
	userID := c.GetUint("user_id")

	templates, err := queryMany[models.MealTemplate](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	})
	if err != nil {
		h.serverError(c, "failed to fetch templates", err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

// createTemplate saves a meal as a template. Components are stored as the
// JSON the client sent.
// POST /api/templates. name and mealType are required.
func (h *Handler) createTemplate(c *gin.Context) {
	userID := c.GetUint("user_id")

	var body struct {
		Name       string          `json:"name"`
		MealType   string          `json:"mealType"`
		Calories   numfield.Value  `json:"calories"`
		ProteinG   numfield.Value  `json:"proteinG"`
		CarbsG     numfield.Value  `json:"carbsG"`
		FatG       numfield.Value  `json:"fatG"`
		FibreG     numfield.Value  `json:"fibreG"`
		Components json.RawMessage `json:"components"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.Name == "" || body.MealType == "" {
		apiError(c, http.StatusBadRequest, "name and mealType are required")
		return
	}

	f := numfield.NewFields("")
	t := models.MealTemplate{
		UserID:   userID,
		Name:     body.Name,
		MealType: body.MealType,
		Calories: f.TruthyFloat("calories", body.Calories),
		ProteinG: f.TruthyFloat("proteinG", body.ProteinG),
		CarbsG:   f.TruthyFloat("carbsG", body.CarbsG),
		FatG:     f.TruthyFloat("fatG", body.FatG),
		FibreG:   f.TruthyFloat("fibreG", body.FibreG),
	}
	if err := f.Err(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Components) > 0 && string(body.Components) != "null" {
		t.Components = datatypes.JSON(body.Components)
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&t).Error; err != nil {
		h.serverError(c, "failed to create template", err)
		return
	}

	c.JSON(http.StatusCreated, t)
}

// deleteTemplate removes a saved meal.
// DELETE /api/templates/:id
func (h *Handler) deleteTemplate(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, userID).Delete(&models.MealTemplate{})
	if res.Error != nil {
		h.serverError(c, "failed to delete template", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, "template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
