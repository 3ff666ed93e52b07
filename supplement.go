package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

type supplementRequest struct {
	DailyLogID uint           `json:"dailyLogId"`
	Name       *string        `json:"name"`
	DoseMg     numfield.Value `json:"doseMg"`
	TakenAt    *string        `json:"takenAt"`
	Notes      *string        `json:"notes"`
}

func (r *supplementRequest) patch() *patch {
	p := newPatch()
	p.required("name", "name", r.Name)
	p.truthyFloat("dose_mg", "doseMg", r.DoseMg)
	p.str("taken_at", r.TakenAt)
	p.str("notes", r.Notes)
	return p
}

// createSupplement records a supplement on one of the user's logs.
// POST /api/supplements. dailyLogId and name are required.
func (h *Handler) createSupplement(c *gin.Context) {
	var body supplementRequest
	if !bindJSON(c, &body) {
		return
	}
	if body.DailyLogID == 0 || body.Name == nil || *body.Name == "" {
		apiError(c, http.StatusBadRequest, "dailyLogId and name are required")
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

	s := models.Supplement{DailyLogID: body.DailyLogID, Name: *body.Name}
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&s).Error; err != nil {
			return err
		}
		return tx.Model(&s).Updates(p.cols).Error
	})
	if err != nil {
		h.serverError(c, "failed to create supplement", err)
		return
	}

	h.respondChild(c, http.StatusCreated, &models.Supplement{}, s.ID, "supplement")
}

// PUT /api/supplements/:id
func (h *Handler) updateSupplement(c *gin.Context) {
	var body supplementRequest
	h.updateChild(c, "supplements", &models.Supplement{}, "supplement", &body, body.patch)
}

// DELETE /api/supplements/:id
func (h *Handler) deleteSupplement(c *gin.Context) {
	h.deleteChild(c, "supplements", &models.Supplement{}, "supplement")
}
