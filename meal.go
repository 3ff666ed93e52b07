package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

type componentRequest struct {
	Name     string         `json:"name"`
	WeightG  numfield.Value `json:"weightG"`
	Calories numfield.Value `json:"calories"`
	ProteinG numfield.Value `json:"proteinG"`
	CarbsG   numfield.Value `json:"carbsG"`
	FatG     numfield.Value `json:"fatG"`
	FibreG   numfield.Value `json:"fibreG"`
}

type mealRequest struct {
	DailyLogID uint           `json:"dailyLogId"`
	MealType   *string        `json:"mealType"`
	Name       *string        `json:"name"`
	Calories   numfield.Value `json:"calories"`
	ProteinG   numfield.Value `json:"proteinG"`
	CarbsG     numfield.Value `json:"carbsG"`
	FatG       numfield.Value `json:"fatG"`
	FibreG     numfield.Value `json:"fibreG"`
	Notes      *string        `json:"notes"`
	// nil means "leave components alone"; an empty list clears them.
	Components []componentRequest `json:"components"`
}

func (r *mealRequest) patch() *patch {
	p := newPatch()
	p.required("meal_type", "mealType", r.MealType)
	p.required("name", "name", r.Name)
	p.truthyFloat("calories", "calories", r.Calories)
	p.truthyFloat("protein_g", "proteinG", r.ProteinG)
	p.truthyFloat("carbs_g", "carbsG", r.CarbsG)
	p.truthyFloat("fat_g", "fatG", r.FatG)
	p.truthyFloat("fibre_g", "fibreG", r.FibreG)
	p.str("notes", r.Notes)
	return p
}

func buildComponents(reqs []componentRequest) ([]models.MealComponent, error) {
	out := make([]models.MealComponent, 0, len(reqs))
	for i, r := range reqs {
		if r.Name == "" {
			return nil, fmt.Errorf("components[%d].name is required", i)
		}
		f := numfield.NewFields(fmt.Sprintf("components[%d]", i))
		out = append(out, models.MealComponent{
			Name:     r.Name,
			WeightG:  f.TruthyFloat("weightG", r.WeightG),
			Calories: f.TruthyFloat("calories", r.Calories),
			ProteinG: f.TruthyFloat("proteinG", r.ProteinG),
			CarbsG:   f.TruthyFloat("carbsG", r.CarbsG),
			FatG:     f.TruthyFloat("fatG", r.FatG),
			FibreG:   f.TruthyFloat("fibreG", r.FibreG),
		})
		if err := f.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// dailyLogOwned reports whether logID belongs to userID.
func (h *Handler) dailyLogOwned(c *gin.Context, logID, userID uint) (bool, error) {
	var n int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.DailyLog{}).
		Where("id = ? AND user_id = ?", logID, userID).Count(&n).Error
	return n > 0, err
}

// requireOwnedLog checks the dailyLogId of a create request, writing the
// error response itself when it fails.
func (h *Handler) requireOwnedLog(c *gin.Context, logID uint) bool {
	owned, err := h.dailyLogOwned(c, logID, c.GetUint("user_id"))
	if err != nil {
		h.serverError(c, "failed to fetch log", err)
		return false
	}
	if !owned {
		apiError(c, http.StatusNotFound, "log not found")
		return false
	}
	return true
}

// createMeal adds a meal, with optional components, to one of the user's logs.
// POST /api/meals. dailyLogId, mealType and name are required.
func (h *Handler) createMeal(c *gin.Context) {
	var body mealRequest
	if !bindJSON(c, &body) {
		return
	}
	if body.DailyLogID == 0 || body.MealType == nil || *body.MealType == "" || body.Name == nil || *body.Name == "" {
		apiError(c, http.StatusBadRequest, "dailyLogId, mealType, and name are required")
		return
	}
	f := numfield.NewFields("")
	meal := models.Meal{
		DailyLogID: body.DailyLogID,
		MealType:   *body.MealType,
		Name:       *body.Name,
		Calories:   f.TruthyFloat("calories", body.Calories),
		ProteinG:   f.TruthyFloat("proteinG", body.ProteinG),
		CarbsG:     f.TruthyFloat("carbsG", body.CarbsG),
		FatG:       f.TruthyFloat("fatG", body.FatG),
		FibreG:     f.TruthyFloat("fibreG", body.FibreG),
	}
	if body.Notes != nil {
		meal.Notes = emptyToNil(*body.Notes)
	}
	if err := f.Err(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	components, err := buildComponents(body.Components)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	meal.Components = components

	if !h.requireOwnedLog(c, body.DailyLogID) {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&meal).Error; err != nil {
		h.serverError(c, "failed to create meal", err)
		return
	}

	c.JSON(http.StatusCreated, meal)
}

// updateMeal updates the sent fields of a meal. When components are sent they
// replace the existing ones wholesale.
// PUT /api/meals/:id
func (h *Handler) updateMeal(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body mealRequest
	if !bindJSON(c, &body) {
		return
	}
	p := body.patch()
	if p.err != nil {
		apiError(c, http.StatusBadRequest, p.err.Error())
		return
	}
	var components []models.MealComponent
	if body.Components != nil {
		var err error
		if components, err = buildComponents(body.Components); err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var meal models.Meal
		if err := ownsDailyLog("meals", userID)(tx).Where("meals.id = ?", id).Take(&meal).Error; err != nil {
			return err
		}
		if !p.empty() {
			if err := tx.Model(&meal).Updates(p.cols).Error; err != nil {
				return err
			}
		}
		if body.Components == nil {
			return nil
		}
		if err := tx.Where("meal_id = ?", meal.ID).Delete(&models.MealComponent{}).Error; err != nil {
			return err
		}
		for i := range components {
			components[i].MealID = meal.ID
		}
		if len(components) == 0 {
			return nil
		}
		return tx.Create(&components).Error
	})
	if err != nil {
		h.notFoundOr500(c, err, "meal")
		return
	}

	h.respondMeal(c, id)
}

// deleteMeal removes a meal and its components.
// DELETE /api/meals/:id
func (h *Handler) deleteMeal(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	res := ownsDailyLog("meals", userID)(h.db.WithContext(c.Request.Context())).
		Where("meals.id = ?", id).Delete(&models.Meal{})
	if res.Error != nil {
		h.serverError(c, "failed to delete meal", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, "meal not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// uploadMealPhoto stores an image and links it to the meal.
// POST /api/meals/:id/photo (multipart field "photo").
func (h *Handler) uploadMealPhoto(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	meal, err := queryOne[models.Meal](h, c, func(tx *gorm.DB) *gorm.DB {
		return ownsDailyLog("meals", userID)(tx).Where("meals.id = ?", id)
	})
	if err != nil {
		h.notFoundOr500(c, err, "meal")
		return
	}

	url, ok := h.saveUpload(c, uploadMeals)
	if !ok {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(&meal).Update("photo_url", url).Error; err != nil {
		h.serverError(c, "failed to upload photo", err)
		return
	}

	h.respondMeal(c, meal.ID)
}

func (h *Handler) respondMeal(c *gin.Context, id uint) {
	meal, err := queryOne[models.Meal](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("Components").Where("id = ?", id)
	})
	if err != nil {
		h.notFoundOr500(c, err, "meal")
		return
	}
	if meal.Components == nil {
		meal.Components = []models.MealComponent{}
	}
	c.JSON(http.StatusOK, meal)
}
