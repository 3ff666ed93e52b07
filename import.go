package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/ingest"
	"lg/fitness-tracker-api/internal/models"
)

const importHistoryLimit = 30

type importResponse struct {
	Success     bool   `json:"success"`
	Date        string `json:"date"`
	Overwritten *bool  `json:"overwritten,omitempty"`
	*ingest.Result
}

// importDaily ingests a full day from the import document. A day that already
// exists is rejected with 409 and the existing log's id.
// POST /api/import/daily
func (h *Handler) importDaily(c *gin.Context) {
	h.runImport(c, false)
}

// importDailyOverwrite replaces any existing log for the document's date.
// POST /api/import/daily/overwrite
func (h *Handler) importDailyOverwrite(c *gin.Context) {
	h.runImport(c, true)
}

func (h *Handler) runImport(c *gin.Context, overwrite bool) {
	userID := c.GetUint("user_id")
	raw, err := c.GetRawData()
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var res *ingest.Result
	if overwrite {
		res, err = h.ingester.Overwrite(c.Request.Context(), userID, raw)
	} else {
		res, err = h.ingester.Import(c.Request.Context(), userID, raw)
	}

	var conflict *ingest.ConflictError
	switch {
	case err == nil:
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Log for this date already exists. Use /api/import/daily/overwrite to replace.",
			"date":  conflict.Date,
			"id":    conflict.ExistingID,
		})
		return
	case errors.Is(err, ingest.ErrDateRequired):
		apiError(c, http.StatusBadRequest, "date is required")
		return
	case errors.Is(err, ingest.ErrInvalidDocument),
		errors.Is(err, ingest.ErrInvalidDate),
		errors.Is(err, ingest.ErrInvalidField):
		apiError(c, http.StatusBadRequest, err.Error())
		return
	default:
		h.log.Error("import failed", zap.Uint("user_id", userID), zap.Bool("overwrite", overwrite), zap.Error(err))
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := importResponse{Success: true, Date: res.Date.String(), Result: res}
	if overwrite {
		resp.Overwritten = &res.Overwritten
	}
	c.JSON(http.StatusOK, resp)
}

// getImportHistory lists the user's latest imports without their payloads.
// GET /api/import/history
func (h *Handler) getImportHistory(c *gin.Context) {
	userID := c.GetUint("user_id")

	logs, err := queryMany[models.ImportLog](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Omit("raw_json").Where("user_id = ?", userID).
			Order("imported_at DESC, id DESC").Limit(importHistoryLimit)
	})
	if err != nil {
		h.serverError(c, "failed to fetch import history", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// getImportLog returns one import with its raw payload.
// GET /api/import/history/:id
func (h *Handler) getImportLog(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	entry, err := queryOne[models.ImportLog](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ? AND user_id = ?", id, userID)
	})
	if err != nil {
		h.notFoundOr500(c, err, "import")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// getImportSchema describes the import format with an example document.
// GET /api/import/schema
func (h *Handler) getImportSchema(c *gin.Context) {
	c.JSON(http.StatusOK, ingest.ExampleSchema())
}
