package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

var (
	ErrInvalidDocument = errors.New("invalid import document")
	ErrDateRequired    = errors.New("date is required")
	ErrInvalidDate     = errors.New("invalid date")
	// ErrInvalidField marks a field that could not be converted while writing
	// the day, e.g. a numeric field holding "abc".
	ErrInvalidField = errors.New("invalid field")
)

// Document is the daily import format. Keys are snake_case; absent sections
// decode to their zero values.
type Document struct {
	Date          string         `json:"date"`
	Meta          Meta           `json:"meta"`
	Sleep         *Sleep         `json:"sleep"`
	Workouts      []Workout      `json:"workouts"`
	Nutrition     Nutrition      `json:"nutrition"`
	Supplements   []Supplement   `json:"supplements"`
	ActivityRings *ActivityRings `json:"activity_rings"`
	Steps         *Steps         `json:"steps"`
}

type Meta struct {
	WeightKg  numfield.Value `json:"weight_kg"`
	WakeTime  string         `json:"wake_time"`
	SleepTime string         `json:"sleep_time"`
	Notes     string         `json:"notes"`
}

type Sleep struct {
	BedTime   string         `json:"bed_time"`
	WakeTime  string         `json:"wake_time"`
	TotalMins numfield.Value `json:"total_mins"`
	AwakeMins numfield.Value `json:"awake_mins"`
	RemMins   numfield.Value `json:"rem_mins"`
	CoreMins  numfield.Value `json:"core_mins"`
	DeepMins  numfield.Value `json:"deep_mins"`
}

type Workout struct {
	Type           string         `json:"type"`
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	DurationMins   numfield.Value `json:"duration_mins"`
	ActiveCalories numfield.Value `json:"active_calories"`
	TotalCalories  numfield.Value `json:"total_calories"`
	AvgHeartRate   numfield.Value `json:"avg_heart_rate"`
	MaxHeartRate   numfield.Value `json:"max_heart_rate"`
	DistanceKm     numfield.Value `json:"distance_km"`
	AvgPace        string         `json:"avg_pace"`
	EffortLevel    numfield.Value `json:"effort_level"`
	Notes          string         `json:"notes"`
}

// Nutrition.Totals is accepted for compatibility and never stored; day
// totals are always derived from the meals.
type Nutrition struct {
	Meals  []Meal          `json:"meals"`
	Totals json.RawMessage `json:"totals"`
}

type Meal struct {
	MealType   string         `json:"meal_type"`
	Name       string         `json:"name"`
	Calories   numfield.Value `json:"calories"`
	ProteinG   numfield.Value `json:"protein_g"`
	CarbsG     numfield.Value `json:"carbs_g"`
	FatG       numfield.Value `json:"fat_g"`
	FibreG     numfield.Value `json:"fibre_g"`
	Notes      string         `json:"notes"`
	Components []Component    `json:"components"`
}

type Component struct {
	Name     string         `json:"name"`
	WeightG  numfield.Value `json:"weight_g"`
	Calories numfield.Value `json:"calories"`
	ProteinG numfield.Value `json:"protein_g"`
	CarbsG   numfield.Value `json:"carbs_g"`
	FatG     numfield.Value `json:"fat_g"`
	FibreG   numfield.Value `json:"fibre_g"`
}

type Supplement struct {
	Name    string         `json:"name"`
	DoseMg  numfield.Value `json:"dose_mg"`
	TakenAt string         `json:"taken_at"`
	Notes   string         `json:"notes"`
}

type ActivityRings struct {
	MoveCal      numfield.Value `json:"move_cal"`
	MoveGoal     numfield.Value `json:"move_goal"`
	ExerciseMins numfield.Value `json:"exercise_mins"`
	ExerciseGoal numfield.Value `json:"exercise_goal"`
	StandHrs     numfield.Value `json:"stand_hrs"`
	StandGoal    numfield.Value `json:"stand_goal"`
}

type Steps struct {
	Count      numfield.Value `json:"count"`
	DistanceKm numfield.Value `json:"distance_km"`
}

// Parse decodes raw and validates the date. Nothing is written when it fails.
func Parse(raw []byte) (*Document, models.DateOnly, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, models.DateOnly{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidDocument)
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, models.DateOnly{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if strings.TrimSpace(doc.Date) == "" {
		return nil, models.DateOnly{}, ErrDateRequired
	}
	date, err := models.ParseDate(doc.Date)
	if err != nil {
		return nil, models.DateOnly{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return &doc, date, nil
}

// ConflictError is returned by a plain import when the user already has a
// daily log for the date.
type ConflictError struct {
	Date       models.DateOnly
	ExistingID uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("log for %s already exists, use the overwrite import to replace it", e.Date)
}

// nullString maps "" to NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
