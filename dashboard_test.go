package main

import (
	"net/http"
	"testing"
)

type dashboardRollup struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Days      []struct {
		Date         string   `json:"date"`
		Weight       *float64 `json:"weight"`
		Calories     float64  `json:"calories"`
		NetCalories  float64  `json:"netCalories"`
		WorkoutCount int      `json:"workoutCount"`
	} `json:"days"`
	Averages struct {
		Calories    int `json:"calories"`
		Protein     int `json:"protein"`
		WorkoutMins int `json:"workoutMins"`
	} `json:"averages"`
	WeightData []struct {
		Date     string   `json:"date"`
		WeightKg *float64 `json:"weightKg"`
	} `json:"weightData"`
	DaysLogged    int              `json:"daysLogged"`
	TotalWorkouts int              `json:"totalWorkouts"`
	Goals         []map[string]any `json:"goals"`
}

// seedDashboard imports three days: today (2026-03-10), six days ago, and
// nine days ago, which is outside the weekly window.
func seedDashboard(t *testing.T, env *testEnv) {
	t.Helper()
	docs := []string{
		`{"date":"2026-03-10","meta":{"weight_kg":80},
		  "nutrition":{"meals":[{"meal_type":"lunch","name":"Bowl","calories":700,"protein_g":40,"carbs_g":80,"fat_g":20,"fibre_g":9},
		                        {"meal_type":"dinner","name":"Pasta","calories":900,"protein_g":35}]},
		  "workouts":[{"type":"run","duration_mins":30,"active_calories":300}],
		  "supplements":[{"name":"Creatine","dose_mg":5000}]}`,
		`{"date":"2026-03-04","meta":{"weight_kg":81},
		  "nutrition":{"meals":[{"meal_type":"lunch","name":"Wrap","calories":501,"protein_g":25}]},
		  "workouts":[{"type":"walk","duration_mins":45},{"type":"lift","duration_mins":60}]}`,
		`{"date":"2026-03-01","meta":{"weight_kg":82},
		  "nutrition":{"meals":[{"meal_type":"lunch","name":"Salad","calories":400}]}}`,
	}
	for _, doc := range docs {
		expectStatus(t, env.do("POST", "/api/import/daily", doc), http.StatusOK)
	}
}

func TestDashboardToday(t *testing.T) {
	env := newTestEnv(t)
	seedDashboard(t, env)
	expectStatus(t, env.do("POST", "/api/goals", `{"goalType":"weight","targetValue":75,"targetDate":"2026-06-09"}`), http.StatusCreated)

	w := env.do("GET", "/api/dashboard/today", "")
	expectStatus(t, w, http.StatusOK)
	resp := decode[struct {
		Date   string         `json:"date"`
		Log    map[string]any `json:"log"`
		Macros struct {
			Calories float64 `json:"calories"`
			Protein  float64 `json:"protein"`
			Fibre    float64 `json:"fibre"`
		} `json:"macros"`
		Exercise struct {
			ActiveCalories float64 `json:"activeCalories"`
			TotalMins      int     `json:"totalMins"`
			WorkoutCount   int     `json:"workoutCount"`
		} `json:"exercise"`
		NetCalories float64          `json:"netCalories"`
		Supplements []map[string]any `json:"supplements"`
		Goals       []map[string]any `json:"goals"`
		WeightTrend []struct {
			Date string `json:"date"`
		} `json:"weightTrend"`
		Energy *energyEstimate `json:"energy"`
	}](t, w)

	if resp.Date != "2026-03-10" || resp.Log == nil {
		t.Fatalf("expected today's log, got %s", w.Body.String())
	}
	if resp.Macros.Calories != 1600 || resp.Macros.Protein != 75 || resp.Macros.Fibre != 9 {
		t.Errorf("unexpected macros: %+v", resp.Macros)
	}
	if resp.Exercise.ActiveCalories != 300 || resp.Exercise.TotalMins != 30 || resp.Exercise.WorkoutCount != 1 {
		t.Errorf("unexpected exercise: %+v", resp.Exercise)
	}
	if resp.NetCalories != 1300 {
		t.Errorf("netCalories = %v, want 1300", resp.NetCalories)
	}
	if len(resp.Supplements) != 1 || len(resp.Goals) != 1 {
		t.Errorf("expected 1 supplement and 1 goal, got %d and %d", len(resp.Supplements), len(resp.Goals))
	}
	// The import auto-logged three weight samples; the trend is oldest first.
	if len(resp.WeightTrend) != 3 || resp.WeightTrend[0].Date != "2026-03-01" || resp.WeightTrend[2].Date != "2026-03-10" {
		t.Errorf("unexpected weight trend: %+v", resp.WeightTrend)
	}
	// No profile yet, so no estimate.
	if resp.Energy != nil {
		t.Errorf("expected no energy estimate without a profile, got %+v", resp.Energy)
	}

	expectStatus(t, env.do("PATCH", "/api/settings", `{"sex":"male","dateOfBirth":"1990-01-01","heightCm":180,"activityLevel":"moderate"}`), http.StatusOK)
	w = env.do("GET", "/api/dashboard/today", "")
	energy := decode[struct {
		Energy *energyEstimate `json:"energy"`
	}](t, w).Energy
	if energy == nil || energy.WeightKg != 80 || energy.BMR != 1750 || energy.Budget == nil {
		t.Errorf("expected an estimate from the latest weight with a budget, got %s", w.Body.String())
	}
}

func TestDashboardToday_NothingLogged(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/api/dashboard/today", "")
	expectStatus(t, w, http.StatusOK)
	resp := decode[map[string]any](t, w)
	if resp["log"] != nil {
		t.Errorf("expected null log, got %v", resp["log"])
	}
	if supps, ok := resp["supplements"].([]any); !ok || len(supps) != 0 {
		t.Errorf("expected empty supplements array, got %v", resp["supplements"])
	}
	if trend, ok := resp["weightTrend"].([]any); !ok || len(trend) != 0 {
		t.Errorf("expected empty weightTrend array, got %v", resp["weightTrend"])
	}
}

func TestDashboardWeekly(t *testing.T) {
	env := newTestEnv(t)
	seedDashboard(t, env)

	resp := decode[dashboardRollup](t, env.do("GET", "/api/dashboard/weekly", ""))
	if resp.StartDate != "2026-03-04" || resp.EndDate != "2026-03-10" {
		t.Errorf("unexpected window %s..%s", resp.StartDate, resp.EndDate)
	}
	if len(resp.Days) != 2 || resp.Days[0].Date != "2026-03-04" {
		t.Fatalf("expected 2 days oldest first, got %+v", resp.Days)
	}
	// Averages are over logged days only: (501+1600)/2 = 1050.5 rounds to 1051.
	if resp.Averages.Calories != 1051 || resp.Averages.Protein != 50 {
		t.Errorf("unexpected averages: %+v", resp.Averages)
	}
	if resp.Averages.WorkoutMins != 68 { // (105+30)/2 = 67.5
		t.Errorf("workoutMins average = %d, want 68", resp.Averages.WorkoutMins)
	}
	if resp.TotalWorkouts != 3 {
		t.Errorf("totalWorkouts = %d, want 3", resp.TotalWorkouts)
	}
}

func TestDashboardMonthlyAndTotal(t *testing.T) {
	env := newTestEnv(t)
	seedDashboard(t, env)
	// A standalone sample outside any daily log still shows in weightData.
	expectStatus(t, env.do("POST", "/api/metrics", `{"date":"2026-03-05","weightKg":80.6}`), http.StatusCreated)
	// Older than the monthly window.
	expectStatus(t, env.do("POST", "/api/import/daily", `{"date":"2025-12-01","meta":{"weight_kg":85}}`), http.StatusOK)

	monthly := decode[dashboardRollup](t, env.do("GET", "/api/dashboard/monthly", ""))
	if monthly.StartDate != "2026-02-09" || monthly.DaysLogged != 3 || monthly.TotalWorkouts != 3 {
		t.Errorf("unexpected monthly rollup: %+v", monthly)
	}
	if len(monthly.WeightData) != 4 || monthly.WeightData[0].Date != "2026-03-01" {
		t.Errorf("unexpected monthly weight data: %+v", monthly.WeightData)
	}
	if monthly.Goals != nil {
		t.Error("monthly rollup does not include goals")
	}

	total := decode[dashboardRollup](t, env.do("GET", "/api/dashboard/total", ""))
	if total.StartDate != "2025-12-01" || total.DaysLogged != 4 || len(total.WeightData) != 5 {
		t.Errorf("unexpected total rollup: start %s, days %d, weights %d", total.StartDate, total.DaysLogged, len(total.WeightData))
	}
	if total.Goals == nil {
		t.Error("total rollup should include goals")
	}
}
