package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lg/fitness-tracker-api/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	Long:  "Applies pending embedded SQL migrations on PostgreSQL, or auto-migrates the models on SQLite.",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, dbCfg, _, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		if dbCfg.Driver == "sqlite" {
			if err := db.AutoMigrate(gdb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SQLite schema is up to date")
			return nil
		}

		applied, err := db.RunMigrations(cmd.Context(), gdb)
		if err != nil {
			return err
		}
		if applied == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No new migrations to apply")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
