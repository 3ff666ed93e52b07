package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lg/fitness-tracker-api/internal/models"
)

// defaultGoals are created for a new user by seed-goals, each running three
// months from today.
var defaultGoals = []struct {
	goalType string
	target   float64
}{
	{"weight", 75},
	{"calories", 2000},
	{"protein", 150},
}

var seedUser string

var seedGoalsCmd = &cobra.Command{
	Use:   "seed-goals --user <email>",
	Short: "Create the default weight, calorie and protein goals",
	Long:  "Adds any default goal the user does not already have a goal of the same type for. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, _, _, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		u, err := findUser(gdb, seedUser)
		if err != nil {
			return err
		}

		today := models.NewDate(time.Now())
		target := models.DateOnly{Time: today.AddDate(0, 3, 0)}
		created := 0
		for _, g := range defaultGoals {
			var n int64
			if err := gdb.Model(&models.Goal{}).Where("user_id = ? AND goal_type = ?", u.ID, g.goalType).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			goal := models.Goal{UserID: u.ID, GoalType: g.goalType, TargetValue: g.target, StartDate: today, TargetDate: target}
			if err := gdb.Create(&goal).Error; err != nil {
				return fmt.Errorf("create %s goal: %w", g.goalType, err)
			}
			created++
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %d goal(s) for %s\n", created, u.Email)
		return nil
	},
}

func init() {
	seedGoalsCmd.Flags().StringVar(&seedUser, "user", "", "Email of the user to seed goals for")
	seedGoalsCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(seedGoalsCmd)
}
