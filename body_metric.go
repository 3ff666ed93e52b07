package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

// listBodyMetrics returns weight/photo samples for the authenticated user,
// newest first, optionally within [from, to].
// GET /api/metrics?from=YYYY-MM-DD&to=YYYY-MM-DD&limit=100
// Returns an empty array (not null) when there are no samples.
func (h *Handler) listBodyMetrics(c *gin.Context) {
	userID := c.GetUint("user_id")
	limit := intQuery(c, "limit", 100)

	var from, to *models.DateOnly
	for _, q := range []struct {
		key string
		dst **models.DateOnly
	}{{"from", &from}, {"to", &to}} {
		raw := c.Query(q.key)
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid "+q.key+", expected YYYY-MM-DD")
			return
		}
		*q.dst = &d
	}
	if from != nil && to != nil && from.After(to.Time) {
		apiError(c, http.StatusBadRequest, "from must not be after to")
		return
	}

	metrics, err := queryMany[models.BodyMetric](h, c, func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("user_id = ?", userID)
		if from != nil {
			tx = tx.Where("date >= ?", *from)
		}
		if to != nil {
			tx = tx.Where("date <= ?", *to)
		}
		return tx.Order("date DESC, id DESC").Limit(limit)
	})
	if err != nil {
		h.serverError(c, "failed to fetch metrics", err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// createBodyMetric records a weight sample.
// POST /api/metrics. Body: { "date": "YYYY-MM-DD", "weightKg"?: 80.2, "notes"? }.
func (h *Handler) createBodyMetric(c *gin.Context) {
	userID := c.GetUint("user_id")

	var body struct {
		Date     string         `json:"date"`
		WeightKg numfield.Value `json:"weightKg"`
		Notes    *string        `json:"notes"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.Date == "" {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	date, err := models.ParseDate(body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	weight, err := validWeight(body.WeightKg)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	m := models.BodyMetric{UserID: userID, Date: date, WeightKg: weight}
	if body.Notes != nil {
		m.Notes = emptyToNil(*body.Notes)
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&m).Error; err != nil {
		h.serverError(c, "failed to create metric", err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// uploadProgressPhoto stores a physique check-in photo as a body metric.
// POST /api/metrics/photo (multipart: "photo", optional "date", "weightKg", "notes").
// date defaults to today.
func (h *Handler) uploadProgressPhoto(c *gin.Context) {
	userID := c.GetUint("user_id")

	date := h.today()
	if raw := c.PostForm("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}
	var weight *float64
	if raw := c.PostForm("weightKg"); raw != "" {
		var err error
		if weight, err = validWeight(numfield.FromString(raw)); err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	url, ok := h.saveUpload(c, uploadPhotos)
	if !ok {
		return
	}

	m := models.BodyMetric{UserID: userID, Date: date, WeightKg: weight, PhotoURL: &url, Notes: emptyToNil(c.PostForm("notes"))}
	if err := h.db.WithContext(c.Request.Context()).Create(&m).Error; err != nil {
		h.serverError(c, "failed to upload photo", err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// deleteBodyMetric removes a sample by ID.
// DELETE /api/metrics/:id. Ownership is enforced by requiring both id and user_id to match.
func (h *Handler) deleteBodyMetric(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, userID).Delete(&models.BodyMetric{})
	if res.Error != nil {
		h.serverError(c, "failed to delete metric", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		apiError(c, http.StatusNotFound, "metric not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

var errWeightRange = errors.New("weightKg must be between 0 and 999.9")

// validWeight applies the import's truthy coercion, then a sanity range.
func validWeight(v numfield.Value) (*float64, error) {
	w, err := v.TruthyFloat()
	if err != nil {
		return nil, err
	}
	if w != nil && (*w < 0 || *w > 999.9) {
		return nil, errWeightRange
	}
	return w, nil
}
