package models

import "time"

// DailyLog is the per-user, per-date root of a day's records. (user_id, date)
// is unique; every child row is deleted with it.
type DailyLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uidx_daily_logs_user_date" json:"userId"`
	Date      DateOnly  `gorm:"type:date;not null;uniqueIndex:uidx_daily_logs_user_date" json:"date"`
	WeightKg  *float64  `json:"weightKg"`
	WakeTime  *string   `json:"wakeTime"`
	SleepTime *string   `json:"sleepTime"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Meals         []Meal         `gorm:"constraint:OnDelete:CASCADE" json:"meals"`
	Workouts      []Workout      `gorm:"constraint:OnDelete:CASCADE" json:"workouts"`
	Supplements   []Supplement   `gorm:"constraint:OnDelete:CASCADE" json:"supplements"`
	SleepLog      *SleepLog      `gorm:"constraint:OnDelete:CASCADE" json:"sleepLog,omitempty"`
	ActivityRings *ActivityRings `gorm:"constraint:OnDelete:CASCADE" json:"activityRings,omitempty"`
}

func (DailyLog) TableName() string { return "daily_logs" }

// EnsureSlices replaces nil child slices with empty ones so they encode as [].
func (l *DailyLog) EnsureSlices() {
	if l.Meals == nil {
		l.Meals = []Meal{}
	}
	for i := range l.Meals {
		if l.Meals[i].Components == nil {
			l.Meals[i].Components = []MealComponent{}
		}
	}
	if l.Workouts == nil {
		l.Workouts = []Workout{}
	}
	if l.Supplements == nil {
		l.Supplements = []Supplement{}
	}
}

type SleepLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DailyLogID   uint      `gorm:"not null;index" json:"dailyLogId"`
	Date         DateOnly  `gorm:"type:date;not null;index" json:"date"`
	BedTime      *string   `json:"bedTime"`
	WakeTime     *string   `json:"wakeTime"`
	TotalMins    int       `gorm:"not null" json:"totalMins"`
	AwakeMins    *int      `json:"awakeMins"`
	RemMins      *int      `json:"remMins"`
	CoreMins     *int      `json:"coreMins"`
	DeepMins     *int      `json:"deepMins"`
	DeepSleepPct *int      `json:"deepSleepPct"`
	RemPct       *int      `json:"remPct"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (SleepLog) TableName() string { return "sleep_logs" }

type Workout struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DailyLogID     uint      `gorm:"not null;index" json:"dailyLogId"`
	Type           string    `gorm:"not null" json:"type"`
	StartTime      *string   `json:"startTime"`
	EndTime        *string   `json:"endTime"`
	DurationMins   *int      `json:"durationMins"`
	ActiveCalories *float64  `json:"activeCalories"`
	TotalCalories  *float64  `json:"totalCalories"`
	AvgHeartRate   *int      `json:"avgHeartRate"`
	MaxHeartRate   *int      `json:"maxHeartRate"`
	DistanceKm     *float64  `json:"distanceKm"`
	AvgPace        *string   `json:"avgPace"`
	EffortLevel    *int      `json:"effortLevel"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Workout) TableName() string { return "workouts" }

type Meal struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DailyLogID uint      `gorm:"not null;index" json:"dailyLogId"`
	MealType   string    `gorm:"not null" json:"mealType"`
	Name       string    `gorm:"not null" json:"name"`
	Calories   *float64  `json:"calories"`
	ProteinG   *float64  `json:"proteinG"`
	CarbsG     *float64  `json:"carbsG"`
	FatG       *float64  `json:"fatG"`
	FibreG     *float64  `json:"fibreG"`
	Notes      *string   `json:"notes"`
	PhotoURL   *string   `json:"photoUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Components []MealComponent `gorm:"constraint:OnDelete:CASCADE" json:"components"`
}

func (Meal) TableName() string { return "meals" }

// MealComponent is an ingredient-level breakdown of a meal. Components are
// replaced wholesale on update, never diffed.
type MealComponent struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	MealID   uint     `gorm:"not null;index" json:"mealId"`
	Name     string   `gorm:"not null" json:"name"`
	WeightG  *float64 `json:"weightG"`
	Calories *float64 `json:"calories"`
	ProteinG *float64 `json:"proteinG"`
	CarbsG   *float64 `json:"carbsG"`
	FatG     *float64 `json:"fatG"`
	FibreG   *float64 `json:"fibreG"`
}

func (MealComponent) TableName() string { return "meal_components" }

type Supplement struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DailyLogID uint      `gorm:"not null;index" json:"dailyLogId"`
	Name       string    `gorm:"not null" json:"name"`
	DoseMg     *float64  `json:"doseMg"`
	TakenAt    *string   `json:"takenAt"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Supplement) TableName() string { return "supplements" }

// ActivityRings holds move/exercise/stand actuals and goals plus the day's
// step totals. At most one per daily log.
type ActivityRings struct {
	ID             uint     `gorm:"primaryKey" json:"id"`
	DailyLogID     uint     `gorm:"not null;uniqueIndex" json:"dailyLogId"`
	MoveCal        *int     `json:"moveCal"`
	MoveGoal       *int     `json:"moveGoal"`
	ExerciseMins   *int     `json:"exerciseMins"`
	ExerciseGoal   *int     `json:"exerciseGoal"`
	StandHrs       *int     `json:"standHrs"`
	StandGoal      *int     `json:"standGoal"`
	StepCount      *int     `json:"stepCount"`
	StepDistanceKm *float64 `json:"stepDistanceKm"`
}

func (ActivityRings) TableName() string { return "activity_rings" }
