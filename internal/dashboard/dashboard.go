// Package dashboard holds the rollup arithmetic behind the dashboard
// endpoints: date windows, per-day sums and averages over logged days.
package dashboard

import (
	"math"
	"time"

	"lg/fitness-tracker-api/internal/models"
)

const (
	weekDays  = 7
	monthDays = 30
)

// Window is an inclusive range of calendar dates.
type Window struct {
	Start models.DateOnly `json:"startDate"`
	End   models.DateOnly `json:"endDate"`
}

// Today is the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) models.DateOnly {
	if loc == nil {
		loc = time.Local
	}
	return models.NewDate(now.In(loc))
}

// Weekly is the trailing seven days ending today.
func Weekly(today models.DateOnly) Window {
	return Window{Start: today.AddDays(-(weekDays - 1)), End: today}
}

// Monthly is the trailing thirty days ending today.
func Monthly(today models.DateOnly) Window {
	return Window{Start: today.AddDays(-(monthDays - 1)), End: today}
}

// Day is one logged day reduced to its totals. Missing macro values count as zero.
type Day struct {
	Date           models.DateOnly `json:"date"`
	WeightKg       *float64        `json:"weight"`
	Calories       float64         `json:"calories"`
	ProteinG       float64         `json:"protein"`
	CarbsG         float64         `json:"carbs"`
	FatG           float64         `json:"fat"`
	FibreG         float64         `json:"fibre"`
	ActiveCalories float64         `json:"activeCalories"`
	NetCalories    float64         `json:"netCalories"`
	WorkoutMins    int             `json:"workoutMins"`
	WorkoutCount   int             `json:"workoutCount"`
}

// SumDay totals a daily log's meals and workouts. The log's Meals and
// Workouts must be loaded.
func SumDay(log models.DailyLog) Day {
	d := Day{Date: log.Date, WeightKg: log.WeightKg, WorkoutCount: len(log.Workouts)}
	for _, m := range log.Meals {
		d.Calories += deref(m.Calories)
		d.ProteinG += deref(m.ProteinG)
		d.CarbsG += deref(m.CarbsG)
		d.FatG += deref(m.FatG)
		d.FibreG += deref(m.FibreG)
	}
	for _, w := range log.Workouts {
		d.ActiveCalories += deref(w.ActiveCalories)
		if w.DurationMins != nil {
			d.WorkoutMins += *w.DurationMins
		}
	}
	d.NetCalories = d.Calories - d.ActiveCalories
	return d
}

// SumDays maps SumDay over logs, keeping their order.
func SumDays(logs []models.DailyLog) []Day {
	days := make([]Day, 0, len(logs))
	for _, l := range logs {
		days = append(days, SumDay(l))
	}
	return days
}

// Averages are per-day means over the days that have a log, rounded to the
// nearest integer.
type Averages struct {
	Calories       int `json:"calories"`
	Protein        int `json:"protein"`
	Carbs          int `json:"carbs"`
	Fat            int `json:"fat"`
	Fibre          int `json:"fibre"`
	ActiveCalories int `json:"activeCalories"`
	NetCalories    int `json:"netCalories"`
	WorkoutMins    int `json:"workoutMins"`
}

// Average returns zero averages when days is empty.
func Average(days []Day) Averages {
	if len(days) == 0 {
		return Averages{}
	}
	var sum Day
	for _, d := range days {
		sum.Calories += d.Calories
		sum.ProteinG += d.ProteinG
		sum.CarbsG += d.CarbsG
		sum.FatG += d.FatG
		sum.FibreG += d.FibreG
		sum.ActiveCalories += d.ActiveCalories
		sum.NetCalories += d.NetCalories
		sum.WorkoutMins += d.WorkoutMins
	}
	n := float64(len(days))
	mean := func(total float64) int { return int(math.Round(total / n)) }
	return Averages{
		Calories:       mean(sum.Calories),
		Protein:        mean(sum.ProteinG),
		Carbs:          mean(sum.CarbsG),
		Fat:            mean(sum.FatG),
		Fibre:          mean(sum.FibreG),
		ActiveCalories: mean(sum.ActiveCalories),
		NetCalories:    mean(sum.NetCalories),
		WorkoutMins:    mean(float64(sum.WorkoutMins)),
	}
}

func TotalWorkouts(days []Day) int {
	total := 0
	for _, d := range days {
		total += d.WorkoutCount
	}
	return total
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
