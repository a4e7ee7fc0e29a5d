package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Applies or reverts the embedded schema migrations. The first migration
installs the pgvector extension and creates the document, chunk and
embedding tables.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigrate(cmd, "up")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert migrations",
	Long:  `Reverts applied migrations. Without --steps every migration is reverted and all stored data is dropped.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigrate(cmd, "down")
	},
}

func init() {
	migrateCmd.PersistentFlags().IntVar(&migrateSteps, "steps", 0, "number of migrations to run (0 = all)")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, direction string) error {
	migrate := current().Migrate
	if migrate == nil {
		return errNotConfigured("database")
	}
	if migrateSteps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}

	if err := migrate(direction, migrateSteps); err != nil {
		return err
	}
	cmd.Printf("Migrations %s: done\n", direction)
	return nil
}
