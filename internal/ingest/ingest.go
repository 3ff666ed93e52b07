// Package ingest materializes a daily import document as a DailyLog and its
// children. The whole write (parent, children, weight sample, audit row)
// runs in one transaction.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/models"
	"lg/fitness-tracker-api/internal/numfield"
)

// Result reports what an import created.
type Result struct {
	LogID              uint `json:"logId"`
	MealsCreated       int  `json:"mealsCreated"`
	WorkoutsCreated    int  `json:"workoutsCreated"`
	SupplementsCreated int  `json:"supplementsCreated"`
	SleepLogged        bool `json:"sleepLogged"`
	ActivityLogged     bool `json:"activityLogged"`
	WeightLogged       bool `json:"weightLogged"`
	Overwritten        bool `json:"-"`

	Date models.DateOnly `json:"-"`
}

type Ingester struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(gdb *gorm.DB, log *zap.Logger) *Ingester {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingester{db: gdb, log: log.Named("ingest")}
}

// Import ingests a day that must not exist yet. An existing (user, date) log
// yields a *ConflictError and no writes. Other failures roll back and leave
// an "error" ImportLog behind.
func (in *Ingester) Import(ctx context.Context, userID uint, raw []byte) (*Result, error) {
	doc, date, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	res, err := in.run(ctx, userID, doc, date, raw, false)
	if err != nil {
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			in.recordFailure(ctx, userID, date, raw, err)
		}
		return nil, err
	}
	return res, nil
}

// Overwrite deletes any existing log for the date (children cascade) and
// ingests the document in its place.
func (in *Ingester) Overwrite(ctx context.Context, userID uint, raw []byte) (*Result, error) {
	doc, date, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return in.run(ctx, userID, doc, date, raw, true)
}

func (in *Ingester) run(ctx context.Context, userID uint, doc *Document, date models.DateOnly, raw []byte, overwrite bool) (*Result, error) {
	res := &Result{Date: date}
	err := in.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existingID, err := findLogID(tx, userID, date)
		if err != nil {
			return err
		}
		if existingID != 0 {
			if !overwrite {
				return &ConflictError{Date: date, ExistingID: existingID}
			}
			if err := tx.Delete(&models.DailyLog{}, existingID).Error; err != nil {
				return fmt.Errorf("delete existing log: %w", err)
			}
			res.Overwritten = true
		}

		log, err := createDailyLog(tx, userID, date, doc.Meta)
		if err != nil {
			return err
		}
		res.LogID = log.ID

		if res.SleepLogged, err = writeSleep(tx, log, doc.Sleep); err != nil {
			return err
		}
		if res.WorkoutsCreated, err = writeWorkouts(tx, log.ID, doc.Workouts); err != nil {
			return err
		}
		if res.MealsCreated, err = writeMeals(tx, log.ID, doc.Nutrition.Meals); err != nil {
			return err
		}
		if res.SupplementsCreated, err = writeSupplements(tx, log.ID, doc.Supplements); err != nil {
			return err
		}
		if res.ActivityLogged, err = writeActivity(tx, log.ID, doc.ActivityRings, doc.Steps); err != nil {
			return err
		}
		if res.WeightLogged, err = recordWeightSample(tx, userID, date, log.WeightKg); err != nil {
			return err
		}
		return tx.Create(&models.ImportLog{
			UserID:           userID,
			DailyLogID:       &log.ID,
			Date:             date,
			MealsCount:       res.MealsCreated,
			WorkoutsCount:    res.WorkoutsCreated,
			SupplementsCount: res.SupplementsCreated,
			Status:           models.ImportStatusSuccess,
			RawJSON:          datatypes.JSON(raw),
		}).Error
	})
	if err != nil {
		return nil, in.conflictFromUniqueViolation(ctx, userID, date, err)
	}

	in.log.Info("daily log imported",
		zap.Uint("user_id", userID),
		zap.Stringer("date", date),
		zap.Uint("log_id", res.LogID),
		zap.Int("meals", res.MealsCreated),
		zap.Int("workouts", res.WorkoutsCreated),
		zap.Int("supplements", res.SupplementsCreated),
		zap.Bool("overwritten", res.Overwritten))
	return res, nil
}

// conflictFromUniqueViolation turns a lost insert race on (user_id, date)
// into the same conflict a sequential import would have seen.
func (in *Ingester) conflictFromUniqueViolation(ctx context.Context, userID uint, date models.DateOnly, err error) error {
	if !db.IsUniqueViolation(err) {
		return err
	}
	conflict := &ConflictError{Date: date}
	if id, lookupErr := findLogID(in.db.WithContext(ctx), userID, date); lookupErr == nil {
		conflict.ExistingID = id
	}
	return conflict
}

// recordFailure appends an "error" audit row. It is best effort: a failure
// here is logged and otherwise ignored.
func (in *Ingester) recordFailure(ctx context.Context, userID uint, date models.DateOnly, raw []byte, cause error) {
	msg := cause.Error()
	entry := models.ImportLog{
		UserID:       userID,
		Date:         date,
		Status:       models.ImportStatusError,
		ErrorMessage: &msg,
		RawJSON:      datatypes.JSON(raw),
	}
	if err := in.db.WithContext(ctx).Create(&entry).Error; err != nil {
		in.log.Warn("could not record failed import",
			zap.Uint("user_id", userID), zap.Stringer("date", date), zap.Error(err))
		return
	}
	in.log.Warn("daily import failed",
		zap.Uint("user_id", userID), zap.Stringer("date", date), zap.Error(cause))
}

// findLogID returns 0 when the user has no log for the date.
func findLogID(tx *gorm.DB, userID uint, date models.DateOnly) (uint, error) {
	var existing models.DailyLog
	err := tx.Select("id").Where("user_id = ? AND date = ?", userID, date).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("look up daily log: %w", err)
	}
	return existing.ID, nil
}

/* ─── Pipeline steps ──────────────────────────────────────────────────── */

func createDailyLog(tx *gorm.DB, userID uint, date models.DateOnly, meta Meta) (*models.DailyLog, error) {
	f := numfield.NewFields("meta")
	log := &models.DailyLog{
		UserID:    userID,
		Date:      date,
		WeightKg:  f.TruthyFloat("weight_kg", meta.WeightKg),
		WakeTime:  nullString(meta.WakeTime),
		SleepTime: nullString(meta.SleepTime),
		Notes:     nullString(meta.Notes),
	}
	if err := fieldErr(f); err != nil {
		return nil, err
	}
	if err := tx.Omit(clause.Associations).Create(log).Error; err != nil {
		return nil, fmt.Errorf("create daily log: %w", err)
	}
	return log, nil
}

// writeSleep stores a sleep row only when total_mins is truthy. Stage
// minutes keep explicit zeros.
func writeSleep(tx *gorm.DB, log *models.DailyLog, s *Sleep) (bool, error) {
	if s == nil || !s.TotalMins.Truthy() {
		return false, nil
	}
	total, err := s.TotalMins.Float()
	if err != nil {
		return false, fmt.Errorf("%w: sleep.total_mins: %v", ErrInvalidField, err)
	}
	f := numfield.NewFields("sleep")
	row := &models.SleepLog{
		DailyLogID: log.ID,
		Date:       log.Date,
		BedTime:    nullString(s.BedTime),
		WakeTime:   nullString(s.WakeTime),
		TotalMins:  int(math.Trunc(total)),
		AwakeMins:  f.PresentInt("awake_mins", s.AwakeMins),
		RemMins:    f.PresentInt("rem_mins", s.RemMins),
		CoreMins:   f.PresentInt("core_mins", s.CoreMins),
		DeepMins:   f.PresentInt("deep_mins", s.DeepMins),
	}
	row.DeepSleepPct = stagePercent(f.PresentFloat("deep_mins", s.DeepMins), total)
	row.RemPct = stagePercent(f.PresentFloat("rem_mins", s.RemMins), total)
	if err := fieldErr(f); err != nil {
		return false, err
	}
	if err := tx.Create(row).Error; err != nil {
		return false, fmt.Errorf("create sleep log: %w", err)
	}
	return true, nil
}

// stagePercent is round(stage/total*100), nil when either side is missing.
func stagePercent(stage *float64, total float64) *int {
	if stage == nil || total == 0 {
		return nil
	}
	pct := int(math.Round(*stage / total * 100))
	return &pct
}

func writeWorkouts(tx *gorm.DB, logID uint, workouts []Workout) (int, error) {
	for i, w := range workouts {
		f := numfield.NewFields(fmt.Sprintf("workouts[%d]", i))
		row := &models.Workout{
			DailyLogID:     logID,
			Type:           orDefault(w.Type, "other"),
			StartTime:      nullString(w.StartTime),
			EndTime:        nullString(w.EndTime),
			DurationMins:   f.TruthyInt("duration_mins", w.DurationMins),
			ActiveCalories: f.TruthyFloat("active_calories", w.ActiveCalories),
			TotalCalories:  f.TruthyFloat("total_calories", w.TotalCalories),
			AvgHeartRate:   f.TruthyInt("avg_heart_rate", w.AvgHeartRate),
			MaxHeartRate:   f.TruthyInt("max_heart_rate", w.MaxHeartRate),
			DistanceKm:     f.TruthyFloat("distance_km", w.DistanceKm),
			AvgPace:        nullString(w.AvgPace),
			EffortLevel:    f.TruthyInt("effort_level", w.EffortLevel),
			Notes:          nullString(w.Notes),
		}
		if err := fieldErr(f); err != nil {
			return 0, err
		}
		if err := tx.Create(row).Error; err != nil {
			return 0, fmt.Errorf("create workout: %w", err)
		}
	}
	return len(workouts), nil
}

// writeMeals creates each meal together with its components in one call.
func writeMeals(tx *gorm.DB, logID uint, meals []Meal) (int, error) {
	for i, m := range meals {
		prefix := fmt.Sprintf("nutrition.meals[%d]", i)
		f := numfield.NewFields(prefix)
		row := &models.Meal{
			DailyLogID: logID,
			MealType:   orDefault(m.MealType, "snack"),
			Name:       orDefault(m.Name, "Unnamed meal"),
			Calories:   f.TruthyFloat("calories", m.Calories),
			ProteinG:   f.TruthyFloat("protein_g", m.ProteinG),
			CarbsG:     f.TruthyFloat("carbs_g", m.CarbsG),
			FatG:       f.TruthyFloat("fat_g", m.FatG),
			FibreG:     f.TruthyFloat("fibre_g", m.FibreG),
			Notes:      nullString(m.Notes),
		}
		for j, c := range m.Components {
			if c.Name == "" {
				return 0, fmt.Errorf("%w: %s.components[%d].name is required", ErrInvalidField, prefix, j)
			}
			cf := numfield.NewFields(fmt.Sprintf("%s.components[%d]", prefix, j))
			row.Components = append(row.Components, models.MealComponent{
				Name:     c.Name,
				WeightG:  cf.TruthyFloat("weight_g", c.WeightG),
				Calories: cf.TruthyFloat("calories", c.Calories),
				ProteinG: cf.TruthyFloat("protein_g", c.ProteinG),
				CarbsG:   cf.TruthyFloat("carbs_g", c.CarbsG),
				FatG:     cf.TruthyFloat("fat_g", c.FatG),
				FibreG:   cf.TruthyFloat("fibre_g", c.FibreG),
			})
			if err := fieldErr(cf); err != nil {
				return 0, err
			}
		}
		if err := fieldErr(f); err != nil {
			return 0, err
		}
		if err := tx.Create(row).Error; err != nil {
			return 0, fmt.Errorf("create meal: %w", err)
		}
	}
	return len(meals), nil
}

func writeSupplements(tx *gorm.DB, logID uint, supplements []Supplement) (int, error) {
	for i, s := range supplements {
		if s.Name == "" {
			return 0, fmt.Errorf("%w: supplements[%d].name is required", ErrInvalidField, i)
		}
		f := numfield.NewFields(fmt.Sprintf("supplements[%d]", i))
		row := &models.Supplement{
			DailyLogID: logID,
			Name:       s.Name,
			DoseMg:     f.TruthyFloat("dose_mg", s.DoseMg),
			TakenAt:    nullString(s.TakenAt),
			Notes:      nullString(s.Notes),
		}
		if err := fieldErr(f); err != nil {
			return 0, err
		}
		if err := tx.Create(row).Error; err != nil {
			return 0, fmt.Errorf("create supplement: %w", err)
		}
	}
	return len(supplements), nil
}

// writeActivity stores the rings row when activity_rings is present; steps
// are only kept alongside it.
func writeActivity(tx *gorm.DB, logID uint, rings *ActivityRings, steps *Steps) (bool, error) {
	if rings == nil {
		return false, nil
	}
	f := numfield.NewFields("activity_rings")
	row := &models.ActivityRings{
		DailyLogID:   logID,
		MoveCal:      f.PresentInt("move_cal", rings.MoveCal),
		MoveGoal:     f.PresentInt("move_goal", rings.MoveGoal),
		ExerciseMins: f.PresentInt("exercise_mins", rings.ExerciseMins),
		ExerciseGoal: f.PresentInt("exercise_goal", rings.ExerciseGoal),
		StandHrs:     f.PresentInt("stand_hrs", rings.StandHrs),
		StandGoal:    f.PresentInt("stand_goal", rings.StandGoal),
	}
	if steps != nil {
		sf := numfield.NewFields("steps")
		row.StepCount = sf.PresentInt("count", steps.Count)
		row.StepDistanceKm = sf.PresentFloat("distance_km", steps.DistanceKm)
		if err := fieldErr(sf); err != nil {
			return false, err
		}
	}
	if err := fieldErr(f); err != nil {
		return false, err
	}
	if err := tx.Create(row).Error; err != nil {
		return false, fmt.Errorf("create activity rings: %w", err)
	}
	return true, nil
}

// recordWeightSample mirrors the day's weight into the standalone body
// metric series. A sample this import path wrote earlier for the same date
// is updated rather than duplicated.
func recordWeightSample(tx *gorm.DB, userID uint, date models.DateOnly, weightKg *float64) (bool, error) {
	if weightKg == nil {
		return false, nil
	}
	var sample models.BodyMetric
	err := tx.Where("user_id = ? AND date = ? AND notes = ?", userID, date, models.AutoWeightNote).
		Order("id").Take(&sample).Error
	switch {
	case err == nil:
		if err := tx.Model(&sample).Update("weight_kg", *weightKg).Error; err != nil {
			return false, fmt.Errorf("update weight sample: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		note := models.AutoWeightNote
		if err := tx.Create(&models.BodyMetric{UserID: userID, Date: date, WeightKg: weightKg, Notes: &note}).Error; err != nil {
			return false, fmt.Errorf("create weight sample: %w", err)
		}
	default:
		return false, fmt.Errorf("look up weight sample: %w", err)
	}
	return true, nil
}

func fieldErr(f *numfield.Fields) error {
	if err := f.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return nil
}
