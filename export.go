package main

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/models"
)

var exportHeader = []string{
	"Date", "Weight (kg)", "Wake Time", "Sleep Time",
	"Meal", "Meal Type", "Calories", "Protein (g)", "Carbs (g)", "Fat (g)", "Fibre (g)",
	"Workout Type", "Duration (min)", "Active Calories", "Distance (km)",
	"Supplement", "Dose (mg)",
}

// Column offsets into an export row.
const (
	colMeal       = 4
	colWorkout    = 11
	colSupplement = 15
)

// exportCSV writes every daily log as CSV: one row per meal, workout and
// supplement, or a single bare row for a day with none of them.
// GET /api/export/csv
func (h *Handler) exportCSV(c *gin.Context) {
	userID := c.GetUint("user_id")

	logs, err := queryMany[models.DailyLog](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("Meals", orderByCreated).Preload("Workouts", orderByCreated).
			Preload("Supplements", orderByCreated).
			Where("user_id = ?", userID).Order("date ASC")
	})
	if err != nil {
		h.serverError(c, "failed to export data", err)
		return
	}

	var buf bytes.Buffer
	if err := writeExport(&buf, logs); err != nil {
		h.serverError(c, "failed to export data", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=fitness-data.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func writeExport(buf *bytes.Buffer, logs []models.DailyLog) error {
	w := csv.NewWriter(buf)
	if err := w.Write(exportHeader); err != nil {
		return err
	}

	for _, log := range logs {
		row := func() []string {
			r := make([]string, len(exportHeader))
			r[0] = log.Date.String()
			r[1] = csvFloat(log.WeightKg)
			r[2] = csvString(log.WakeTime)
			r[3] = csvString(log.SleepTime)
			return r
		}

		if len(log.Meals) == 0 && len(log.Workouts) == 0 && len(log.Supplements) == 0 {
			if err := w.Write(row()); err != nil {
				return err
			}
			continue
		}

		for _, m := range log.Meals {
			r := row()
			copy(r[colMeal:], []string{
				m.Name, m.MealType, csvFloat(m.Calories), csvFloat(m.ProteinG),
				csvFloat(m.CarbsG), csvFloat(m.FatG), csvFloat(m.FibreG),
			})
			if err := w.Write(r); err != nil {
				return err
			}
		}
		for _, wo := range log.Workouts {
			r := row()
			copy(r[colWorkout:], []string{
				wo.Type, csvInt(wo.DurationMins), csvFloat(wo.ActiveCalories), csvFloat(wo.DistanceKm),
			})
			if err := w.Write(r); err != nil {
				return err
			}
		}
		for _, s := range log.Supplements {
			r := row()
			copy(r[colSupplement:], []string{s.Name, csvFloat(s.DoseMg)})
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// Zero and missing values both export as an empty cell.
func csvFloat(v *float64) string {
	if v == nil || *v == 0 {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func csvInt(v *int) string {
	if v == nil || *v == 0 {
		return ""
	}
	return strconv.Itoa(*v)
}

func csvString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
