package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/models"
)

var (
	userEmail    string
	userName     string
	userPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user with a bcrypt-hashed password",
	Long:  "Creates a login. Any of --email, --name or --password that is omitted is read from stdin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())
		prompt := func(label string, v *string) error {
			if *v != "" {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read %s: %w", strings.ToLower(label), err)
			}
			*v = strings.TrimSpace(line)
			return nil
		}
		for _, f := range []struct {
			label string
			v     *string
		}{{"Email", &userEmail}, {"Name", &userName}, {"Password", &userPassword}} {
			if err := prompt(f.label, f.v); err != nil {
				return err
			}
		}
		if userEmail == "" || userPassword == "" {
			return errors.New("email and password are required")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(userPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		gdb, _, _, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		u := models.User{Email: normalizeEmail(userEmail), Name: userName, PasswordHash: string(hash)}
		if err := gdb.WithContext(cmd.Context()).Create(&u).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("a user with email %q already exists", u.Email)
			}
			return fmt.Errorf("create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nUser created successfully!\n")
		fmt.Fprintf(cmd.OutOrStdout(), "  ID:    %d\n", u.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "  Email: %s\n", u.Email)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "Login email")
	createUserCmd.Flags().StringVar(&userName, "name", "", "Display name")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "Password (prompted when omitted)")
	rootCmd.AddCommand(createUserCmd)
}

// normalizeEmail matches the login handler, which compares lowercased emails.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
