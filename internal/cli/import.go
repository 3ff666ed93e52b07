package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lg/fitness-tracker-api/internal/ingest"
)

var (
	importUser      string
	importOverwrite bool
)

var importCmd = &cobra.Command{
	Use:   "import --user <email> [--overwrite] <file.json>...",
	Short: "Import daily log documents for a user",
	Long:  "Runs each file through the same ingestion as POST /api/import/daily. Files are independent: a conflict or bad file is reported and the rest still run.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, _, log, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		u, err := findUser(gdb, importUser)
		if err != nil {
			return err
		}
		in := ingest.New(gdb, log)

		failed := 0
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed++
				continue
			}

			var res *ingest.Result
			if importOverwrite {
				res, err = in.Overwrite(cmd.Context(), u.ID, raw)
			} else {
				res, err = in.Import(cmd.Context(), u.ID, raw)
			}
			var conflict *ingest.ConflictError
			switch {
			case errors.As(err, &conflict):
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s already logged (id %d), rerun with --overwrite to replace\n",
					path, conflict.Date, conflict.ExistingID)
				failed++
				continue
			case err != nil:
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed++
				continue
			}

			verb := "imported"
			if res.Overwritten {
				verb = "overwrote"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s log %d (%d meals, %d workouts, %d supplements, sleep=%t, activity=%t, weight=%t)\n",
				path, verb, res.LogID, res.MealsCreated, res.WorkoutsCreated, res.SupplementsCreated,
				res.SleepLogged, res.ActivityLogged, res.WeightLogged)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importUser, "user", "", "Email of the user to import for")
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "Replace days that are already logged")
	importCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(importCmd)
}
