package dashboard

import (
	"testing"
	"time"

	"lg/fitness-tracker-api/internal/models"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func date(s string) models.DateOnly {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestToday_UsesLocation(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2026-03-01 20:00 UTC is already 2 March in Auckland.
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	if got := Today(now, time.UTC).String(); got != "2026-03-01" {
		t.Errorf("Today(UTC) = %s", got)
	}
	if got := Today(now, auckland).String(); got != "2026-03-02" {
		t.Errorf("Today(Auckland) = %s", got)
	}
}

func TestWindows(t *testing.T) {
	today := date("2026-03-10")
	tests := []struct {
		name      string
		w         Window
		wantStart string
	}{
		{"weekly", Weekly(today), "2026-03-04"},
		{"monthly", Monthly(today), "2026-02-09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.w.Start.String() != tt.wantStart {
				t.Errorf("start = %s, want %s", tt.w.Start, tt.wantStart)
			}
			if tt.w.End.String() != "2026-03-10" {
				t.Errorf("end = %s, want 2026-03-10", tt.w.End)
			}
		})
	}
}

func TestSumDay(t *testing.T) {
	log := models.DailyLog{
		Date:     date("2026-03-01"),
		WeightKg: f(80),
		Meals: []models.Meal{
			{Calories: f(600), ProteinG: f(30), FibreG: f(4)},
			{Calories: f(250.5), CarbsG: f(40)},
			{Name: "no macros"},
		},
		Workouts: []models.Workout{
			{ActiveCalories: f(300), DurationMins: n(30)},
			{DurationMins: n(15)},
		},
	}
	d := SumDay(log)

	if d.Calories != 850.5 || d.ProteinG != 30 || d.CarbsG != 40 || d.FibreG != 4 || d.FatG != 0 {
		t.Errorf("macros = %+v", d)
	}
	if d.ActiveCalories != 300 || d.WorkoutMins != 45 || d.WorkoutCount != 2 {
		t.Errorf("exercise = %+v", d)
	}
	if d.NetCalories != 550.5 {
		t.Errorf("net = %v, want 550.5", d.NetCalories)
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name string
		days []Day
		want Averages
	}{
		{"no days", nil, Averages{}},
		{
			"rounds to nearest",
			[]Day{{Calories: 2000, ProteinG: 100}, {Calories: 2001, ProteinG: 151}},
			Averages{Calories: 2001, Protein: 126, NetCalories: 2001},
		},
		{
			"only logged days count",
			[]Day{{Calories: 1800, WorkoutMins: 30, ActiveCalories: 200, NetCalories: 1600}},
			Averages{Calories: 1800, WorkoutMins: 30, ActiveCalories: 200, NetCalories: 1600},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := tt.days
			for i := range days {
				if days[i].NetCalories == 0 {
					days[i].NetCalories = days[i].Calories - days[i].ActiveCalories
				}
			}
			if got := Average(days); got != tt.want {
				t.Errorf("Average = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTotalWorkouts(t *testing.T) {
	days := SumDays([]models.DailyLog{
		{Workouts: []models.Workout{{}, {}}},
		{},
		{Workouts: []models.Workout{{}}},
	})
	if got := TotalWorkouts(days); got != 3 {
		t.Errorf("TotalWorkouts = %d, want 3", got)
	}
}
