package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/models"
)

const scenarioDoc = `{
	"date": "2026-03-01",
	"meta": {"weight_kg": 80},
	"nutrition": {"meals": [{"meal_type": "lunch", "name": "Rice Bowl", "calories": 600}]},
	"workouts": [{"type": "walk", "duration_mins": 30}],
	"supplements": [{"name": "Creatine", "dose_mg": 5000}]
}`

func newTestIngester(t *testing.T) (*Ingester, *gorm.DB, uint) {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "ingest.db"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	u := models.User{Email: "runner@example.com", PasswordHash: "x", Name: "Runner"}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return New(gdb, nil), gdb, u.ID
}

func count(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func loadDay(t *testing.T, gdb *gorm.DB, id uint) models.DailyLog {
	t.Helper()
	var log models.DailyLog
	err := gdb.Preload("Meals.Components").Preload("Workouts").Preload("Supplements").
		Preload("SleepLog").Preload("ActivityRings").First(&log, id).Error
	if err != nil {
		t.Fatalf("load day %d: %v", id, err)
	}
	return log
}

func TestImport_EndToEndScenario(t *testing.T) {
	in, gdb, userID := newTestIngester(t)

	res, err := in.Import(context.Background(), userID, []byte(scenarioDoc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.MealsCreated != 1 || res.WorkoutsCreated != 1 || res.SupplementsCreated != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", res.MealsCreated, res.WorkoutsCreated, res.SupplementsCreated)
	}
	if !res.WeightLogged {
		t.Error("expected weightLogged")
	}
	if res.Date.String() != "2026-03-01" {
		t.Errorf("date = %s, want 2026-03-01", res.Date)
	}
	if res.SleepLogged || res.ActivityLogged {
		t.Errorf("sleepLogged=%v activityLogged=%v, want false", res.SleepLogged, res.ActivityLogged)
	}

	var samples []models.BodyMetric
	if err := gdb.Where("user_id = ?", userID).Find(&samples).Error; err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1 {
		t.Fatalf("body metrics = %d, want 1", len(samples))
	}
	if samples[0].Date.String() != "2026-03-01" {
		t.Errorf("sample date = %s, want 2026-03-01", samples[0].Date)
	}
	if samples[0].WeightKg == nil || *samples[0].WeightKg != 80 {
		t.Errorf("sample weight = %v, want 80", samples[0].WeightKg)
	}
	if samples[0].Notes == nil || *samples[0].Notes != models.AutoWeightNote {
		t.Errorf("sample note = %v", samples[0].Notes)
	}

	var audit models.ImportLog
	if err := gdb.Where("user_id = ?", userID).First(&audit).Error; err != nil {
		t.Fatalf("import log: %v", err)
	}
	if audit.Status != models.ImportStatusSuccess || audit.MealsCount != 1 || audit.WorkoutsCount != 1 || audit.SupplementsCount != 1 {
		t.Errorf("audit = %+v", audit)
	}
	if audit.DailyLogID == nil || *audit.DailyLogID != res.LogID {
		t.Errorf("audit daily log id = %v, want %d", audit.DailyLogID, res.LogID)
	}
	if !strings.Contains(string(audit.RawJSON), "Rice Bowl") {
		t.Errorf("audit raw json missing payload: %s", audit.RawJSON)
	}
}

func TestImport_FreshDateCountsMatchStoredChildren(t *testing.T) {
	in, gdb, userID := newTestIngester(t)

	res, err := in.Import(context.Background(), userID, example)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	day := loadDay(t, gdb, res.LogID)

	if len(day.Meals) != res.MealsCreated || res.MealsCreated != 1 {
		t.Errorf("meals stored %d, reported %d", len(day.Meals), res.MealsCreated)
	}
	if len(day.Workouts) != res.WorkoutsCreated || res.WorkoutsCreated != 1 {
		t.Errorf("workouts stored %d, reported %d", len(day.Workouts), res.WorkoutsCreated)
	}
	if len(day.Supplements) != res.SupplementsCreated || res.SupplementsCreated != 1 {
		t.Errorf("supplements stored %d, reported %d", len(day.Supplements), res.SupplementsCreated)
	}
	if len(day.Meals[0].Components) != 1 {
		t.Errorf("components = %d, want 1", len(day.Meals[0].Components))
	}
	if day.SleepLog == nil || !res.SleepLogged {
		t.Fatal("expected a sleep log")
	}
	if day.ActivityRings == nil || !res.ActivityLogged {
		t.Fatal("expected activity rings")
	}
	if day.ActivityRings.StepCount == nil || *day.ActivityRings.StepCount != 12000 {
		t.Errorf("step count = %v, want 12000", day.ActivityRings.StepCount)
	}
	if day.Notes != nil {
		t.Errorf("empty notes should be NULL, got %q", *day.Notes)
	}
}

func TestImport_ExistingDateConflictsWithoutWrites(t *testing.T) {
	in, gdb, userID := newTestIngester(t)
	ctx := context.Background()

	first, err := in.Import(ctx, userID, []byte(scenarioDoc))
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	before := map[string]int64{
		"daily_logs":   count(t, gdb, &models.DailyLog{}),
		"meals":        count(t, gdb, &models.Meal{}),
		"workouts":     count(t, gdb, &models.Workout{}),
		"body_metrics": count(t, gdb, &models.BodyMetric{}),
		"import_logs":  count(t, gdb, &models.ImportLog{}),
	}

	_, err = in.Import(ctx, userID, []byte(scenarioDoc))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second import err = %v, want *ConflictError", err)
	}
	if conflict.ExistingID != first.LogID {
		t.Errorf("conflict id = %d, want %d", conflict.ExistingID, first.LogID)
	}

	after := map[string]int64{
		"daily_logs":   count(t, gdb, &models.DailyLog{}),
		"meals":        count(t, gdb, &models.Meal{}),
		"workouts":     count(t, gdb, &models.Workout{}),
		"body_metrics": count(t, gdb, &models.BodyMetric{}),
		"import_logs":  count(t, gdb, &models.ImportLog{}),
	}
	for table, n := range before {
		if after[table] != n {
			t.Errorf("%s: %d rows before, %d after", table, n, after[table])
		}
	}
}

func TestOverwrite_ReplacesTheWholeDay(t *testing.T) {
	in, gdb, userID := newTestIngester(t)
	ctx := context.Background()

	first, err := in.Import(ctx, userID, []byte(scenarioDoc))
	if err != nil {
		t.Fatalf("first import: %v", err)
	}

	replacement := `{
		"date": "2026-03-01",
		"meta": {"weight_kg": 79.4},
		"nutrition": {"meals": [
			{"meal_type": "breakfast", "name": "Oats", "calories": 350},
			{"meal_type": "dinner", "name": "Salmon", "calories": 700, "components": [{"name": "Salmon", "weight_g": 180}]}
		]}
	}`
	res, err := in.Overwrite(ctx, userID, []byte(replacement))
	if err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	if !res.Overwritten {
		t.Error("expected overwritten = true")
	}
	if res.LogID == first.LogID {
		t.Error("overwrite should create a new daily log")
	}
	if got := count(t, gdb, &models.DailyLog{}); got != 1 {
		t.Errorf("daily logs = %d, want 1", got)
	}
	if got := count(t, gdb, &models.Meal{}); got != 2 {
		t.Errorf("meals = %d, want 2", got)
	}
	if got := count(t, gdb, &models.Workout{}); got != 0 {
		t.Errorf("workouts = %d, want 0 after overwrite", got)
	}
	if got := count(t, gdb, &models.Supplement{}); got != 0 {
		t.Errorf("supplements = %d, want 0 after overwrite", got)
	}

	var samples []models.BodyMetric
	if err := gdb.Where("user_id = ?", userID).Find(&samples).Error; err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1 || samples[0].WeightKg == nil || *samples[0].WeightKg != 79.4 {
		t.Errorf("weight samples = %+v, want one sample of 79.4", samples)
	}
}

func TestOverwrite_FreshDateIsNotOverwritten(t *testing.T) {
	in, _, userID := newTestIngester(t)

	res, err := in.Overwrite(context.Background(), userID, []byte(scenarioDoc))
	if err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	if res.Overwritten {
		t.Error("overwritten should be false when nothing existed")
	}
}

func TestImport_FieldMapping(t *testing.T) {
	in, gdb, userID := newTestIngester(t)

	doc := `{
		"date": "2026-03-02",
		"sleep": {"total_mins": 480, "deep_mins": 72, "rem_mins": 0},
		"workouts": [{"duration_mins": "45", "active_calories": 0}],
		"nutrition": {"meals": [{"calories": 0, "protein_g": "30"}]},
		"activity_rings": {"move_cal": 0, "stand_hrs": 10},
		"steps": {"count": 0}
	}`
	res, err := in.Import(context.Background(), userID, []byte(doc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	day := loadDay(t, gdb, res.LogID)

	t.Run("sleep percentages", func(t *testing.T) {
		if day.SleepLog.DeepSleepPct == nil || *day.SleepLog.DeepSleepPct != 15 {
			t.Errorf("deep pct = %v, want 15", day.SleepLog.DeepSleepPct)
		}
		if day.SleepLog.RemPct == nil || *day.SleepLog.RemPct != 0 {
			t.Errorf("rem pct = %v, want 0", day.SleepLog.RemPct)
		}
		if day.SleepLog.CoreMins != nil {
			t.Errorf("core mins = %v, want NULL", *day.SleepLog.CoreMins)
		}
	})
	t.Run("zero calories stored as NULL", func(t *testing.T) {
		m := day.Meals[0]
		if m.Calories != nil {
			t.Errorf("calories = %v, want NULL", *m.Calories)
		}
		if m.ProteinG == nil || *m.ProteinG != 30 {
			t.Errorf("protein = %v, want 30", m.ProteinG)
		}
	})
	t.Run("meal defaults", func(t *testing.T) {
		if day.Meals[0].MealType != "snack" || day.Meals[0].Name != "Unnamed meal" {
			t.Errorf("meal = %q/%q", day.Meals[0].MealType, day.Meals[0].Name)
		}
	})
	t.Run("workout defaults and numeric strings", func(t *testing.T) {
		w := day.Workouts[0]
		if w.Type != "other" {
			t.Errorf("type = %q, want other", w.Type)
		}
		if w.DurationMins == nil || *w.DurationMins != 45 {
			t.Errorf("duration = %v, want 45", w.DurationMins)
		}
		if w.ActiveCalories != nil {
			t.Errorf("active calories = %v, want NULL", *w.ActiveCalories)
		}
	})
	t.Run("activity keeps zero", func(t *testing.T) {
		a := day.ActivityRings
		if a.MoveCal == nil || *a.MoveCal != 0 {
			t.Errorf("move cal = %v, want 0", a.MoveCal)
		}
		if a.StepCount == nil || *a.StepCount != 0 {
			t.Errorf("step count = %v, want 0", a.StepCount)
		}
		if a.MoveGoal != nil {
			t.Errorf("move goal = %v, want NULL", *a.MoveGoal)
		}
	})
	t.Run("no weight sample without weight", func(t *testing.T) {
		if res.WeightLogged {
			t.Error("weightLogged should be false")
		}
		if got := count(t, gdb, &models.BodyMetric{}); got != 0 {
			t.Errorf("body metrics = %d, want 0", got)
		}
	})
}

func TestImport_SleepNeedsTruthyTotal(t *testing.T) {
	in, gdb, userID := newTestIngester(t)

	res, err := in.Import(context.Background(), userID, []byte(`{"date":"2026-03-03","sleep":{"total_mins":0,"deep_mins":60}}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.SleepLogged {
		t.Error("sleepLogged should be false for total_mins 0")
	}
	if got := count(t, gdb, &models.SleepLog{}); got != 0 {
		t.Errorf("sleep logs = %d, want 0", got)
	}
}

func TestImport_RejectsBeforeWriting(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		want   error
		audits int64 // field errors on the plain path leave an error row
	}{
		{"not json", `{"date":`, ErrInvalidDocument, 0},
		{"array", `[{"date":"2026-03-01"}]`, ErrInvalidDocument, 0},
		{"empty", ``, ErrInvalidDocument, 0},
		{"missing date", `{"meta":{"weight_kg":80}}`, ErrDateRequired, 0},
		{"blank date", `{"date":"  "}`, ErrDateRequired, 0},
		{"malformed date", `{"date":"03/01/2026"}`, ErrInvalidDate, 0},
		{"date wrong type", `{"date":20260301}`, ErrInvalidDocument, 0},
		{"duration out of range", `{"date":"2026-03-01","workouts":[{"type":"run","duration_mins":1e19}]}`, ErrInvalidField, 1},
		{"sleep stage out of range", `{"date":"2026-03-01","sleep":{"total_mins":480,"deep_mins":9e18}}`, ErrInvalidField, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, gdb, userID := newTestIngester(t)
			_, err := in.Import(context.Background(), userID, []byte(tc.raw))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if got := count(t, gdb, &models.DailyLog{}); got != 0 {
				t.Errorf("daily logs = %d, want 0", got)
			}
			if got := count(t, gdb, &models.ImportLog{}); got != tc.audits {
				t.Errorf("import logs = %d, want %d", got, tc.audits)
			}
		})
	}
}

func TestImport_MalformedNumericRollsBackAndAudits(t *testing.T) {
	in, gdb, userID := newTestIngester(t)

	doc := `{
		"date": "2026-03-04",
		"meta": {"weight_kg": 81},
		"nutrition": {"meals": [{"name": "Toast", "calories": 200}]},
		"workouts": [{"type": "run", "distance_km": "far"}]
	}`
	_, err := in.Import(context.Background(), userID, []byte(doc))
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("err = %v, want ErrInvalidField", err)
	}
	if !strings.Contains(err.Error(), "workouts[0].distance_km") {
		t.Errorf("error should name the field: %v", err)
	}

	for name, model := range map[string]any{
		"daily_logs":   &models.DailyLog{},
		"meals":        &models.Meal{},
		"body_metrics": &models.BodyMetric{},
	} {
		if got := count(t, gdb, model); got != 0 {
			t.Errorf("%s = %d after rollback, want 0", name, got)
		}
	}

	var audits []models.ImportLog
	if err := gdb.Find(&audits).Error; err != nil {
		t.Fatal(err)
	}
	if len(audits) != 1 {
		t.Fatalf("import logs = %d, want 1 error row", len(audits))
	}
	if audits[0].Status != models.ImportStatusError || audits[0].ErrorMessage == nil {
		t.Errorf("audit = %+v, want status error with message", audits[0])
	}
	if audits[0].DailyLogID != nil {
		t.Errorf("error audit should not reference a log, got %d", *audits[0].DailyLogID)
	}
}

func TestOverwrite_FailureKeepsPreviousDay(t *testing.T) {
	in, gdb, userID := newTestIngester(t)
	ctx := context.Background()

	first, err := in.Import(ctx, userID, []byte(scenarioDoc))
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	_, err = in.Overwrite(ctx, userID, []byte(`{"date":"2026-03-01","supplements":[{"dose_mg":100}]}`))
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("err = %v, want ErrInvalidField", err)
	}
	day := loadDay(t, gdb, first.LogID)
	if len(day.Meals) != 1 || len(day.Supplements) != 1 {
		t.Errorf("previous day not intact: %d meals, %d supplements", len(day.Meals), len(day.Supplements))
	}
	if got := count(t, gdb, &models.ImportLog{}); got != 1 {
		t.Errorf("import logs = %d, want only the first success row", got)
	}
}

func TestImport_ConcurrentSameDateLeavesOneLog(t *testing.T) {
	in, gdb, userID := newTestIngester(t)

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
		others    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := in.Import(context.Background(), userID, []byte(scenarioDoc))
			mu.Lock()
			defer mu.Unlock()
			var conflict *ConflictError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &conflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	if len(others) > 0 {
		t.Fatalf("unexpected errors: %v", others)
	}
	if ok != 1 || conflicts != workers-1 {
		t.Errorf("ok=%d conflicts=%d, want 1 and %d", ok, conflicts, workers-1)
	}
	if got := count(t, gdb, &models.DailyLog{}); got != 1 {
		t.Errorf("daily logs = %d, want 1", got)
	}
}

// TestImport_LostInsertRaceIsAConflict has another writer insert the same
// (user, date) between the existence check and the insert, so only the
// unique index catches it.
func TestImport_LostInsertRaceIsAConflict(t *testing.T) {
	in, gdb, userID := newTestIngester(t)

	raced := false
	err := gdb.Callback().Create().Before("gorm:create").Register("test:competing_log", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "daily_logs" {
			return
		}
		raced = true
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("INSERT INTO daily_logs (user_id, date, created_at, updated_at) VALUES (?, ?, ?, ?)",
				userID, "2026-03-01", time.Now(), time.Now()).Error
		if err != nil {
			t.Errorf("insert competing log: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = in.Import(context.Background(), userID, []byte(scenarioDoc))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want *ConflictError", err)
	}
	if !raced {
		t.Fatal("competing insert never ran")
	}
	if conflict.Date.String() != "2026-03-01" {
		t.Errorf("conflict date = %s, want 2026-03-01", conflict.Date)
	}
	if got := count(t, gdb, &models.ImportLog{}); got != 0 {
		t.Errorf("import logs = %d, want 0 (a conflict is not audited)", got)
	}
	if got := count(t, gdb, &models.Meal{}); got != 0 {
		t.Errorf("meals = %d, want 0", got)
	}
}

func TestImport_UsersAreIsolated(t *testing.T) {
	in, gdb, userID := newTestIngester(t)
	other := models.User{Email: "other@example.com", PasswordHash: "x", Name: "Other"}
	if err := gdb.Create(&other).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := in.Import(context.Background(), userID, []byte(scenarioDoc)); err != nil {
		t.Fatalf("import user 1: %v", err)
	}
	if _, err := in.Import(context.Background(), other.ID, []byte(scenarioDoc)); err != nil {
		t.Fatalf("same date for another user should succeed: %v", err)
	}
}

func TestExampleSchema(t *testing.T) {
	s := ExampleSchema()
	if s.Description == "" {
		t.Error("missing description")
	}
	if _, date, err := Parse(s.Example); err != nil || date.String() != "2026-02-24" {
		t.Errorf("example does not parse: date=%s err=%v", date, err)
	}
}
