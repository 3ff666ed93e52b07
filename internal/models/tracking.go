package models

import (
	"time"

	"gorm.io/datatypes"
)

// AutoWeightNote marks body-metric samples written by the daily import.
const AutoWeightNote = "Auto-logged from daily import"

// BodyMetric is a standalone weight/photo sample, independent of DailyLog.
type BodyMetric struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_body_metrics_user_date" json:"userId"`
	Date      DateOnly  `gorm:"type:date;not null;index:idx_body_metrics_user_date" json:"date"`
	WeightKg  *float64  `json:"weightKg"`
	PhotoURL  *string   `json:"photoUrl"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

func (BodyMetric) TableName() string { return "body_metrics" }

type Goal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	GoalType    string    `gorm:"not null" json:"goalType"`
	TargetValue float64   `gorm:"not null" json:"targetValue"`
	StartDate   DateOnly  `gorm:"type:date;not null" json:"startDate"`
	TargetDate  DateOnly  `gorm:"type:date;not null" json:"targetDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Goal) TableName() string { return "goals" }

// MealTemplate is a saved meal. Components are kept as the JSON the client sent.
type MealTemplate struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"userId"`
	Name       string         `gorm:"not null" json:"name"`
	MealType   string         `gorm:"not null" json:"mealType"`
	Calories   *float64       `json:"calories"`
	ProteinG   *float64       `json:"proteinG"`
	CarbsG     *float64       `json:"carbsG"`
	FatG       *float64       `json:"fatG"`
	FibreG     *float64       `json:"fibreG"`
	Components datatypes.JSON `json:"components"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (MealTemplate) TableName() string { return "meal_templates" }

const (
	ImportStatusSuccess = "success"
	ImportStatusError   = "error"
)

// ImportLog is the audit trail of daily imports. DailyLogID is a plain
// column: the audit row outlives an overwritten log.
type ImportLog struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;index" json:"userId"`
	DailyLogID       *uint          `json:"dailyLogId"`
	Date             DateOnly       `gorm:"type:date;not null" json:"date"`
	ImportedAt       time.Time      `gorm:"autoCreateTime;index" json:"importedAt"`
	MealsCount       int            `gorm:"not null;default:0" json:"mealsCount"`
	WorkoutsCount    int            `gorm:"not null;default:0" json:"workoutsCount"`
	SupplementsCount int            `gorm:"not null;default:0" json:"supplementsCount"`
	Status           string         `gorm:"not null" json:"status"`
	ErrorMessage     *string        `json:"errorMessage"`
	RawJSON          datatypes.JSON `gorm:"column:raw_json" json:"rawJson,omitempty"`
}

func (ImportLog) TableName() string { return "import_logs" }
