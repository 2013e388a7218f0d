package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/pawtrack/internal/migrator"
)

var (
	dryRun              bool
	createDBIfNotExists bool
	allowDestructive    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the database to the target schema",
	Long: `Compare the live database with the embedded target schema and apply
the changes needed to converge. Destructive changes are refused unless
explicitly allowed.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the planned SQL without executing it")
	migrateCmd.Flags().BoolVar(&createDBIfNotExists, "create-if-not-exists", false, "create the database if it does not exist")
	migrateCmd.Flags().BoolVar(&allowDestructive, "allow-destructive", false, "allow potentially destructive operations")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if databaseURL == "" {
		return fmt.Errorf("database connection required: use --url, DATABASE_URL, or pawtrack.yaml")
	}

	assumeEmpty := false
	if createDBIfNotExists {
		if err := migrator.EnsureDatabaseExists(databaseURL); err != nil {
			return err
		}
		assumeEmpty = true
	}

	config := migrator.NewDBConfig(databaseURL)
	db, err := config.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	m := migrator.New(config)

	plan, err := m.Plan(ctx, db, assumeEmpty)
	if err != nil {
		return fmt.Errorf("failed to plan migration: %w", err)
	}

	if plan.Empty() {
		cmd.Println("Database is up to date.")
		return nil
	}

	if count, descriptions := plan.Destructive(); count > 0 {
		cmd.Printf("Plan contains %d destructive change(s):\n", count)
		for _, d := range descriptions {
			cmd.Printf("  - %s\n", d)
		}
	}

	if dryRun {
		cmd.Println("Planned statements (dry run):")
		for _, stmt := range plan.Statements {
			cmd.Printf("%s;\n", stmt)
		}
		return nil
	}

	if err := m.Apply(ctx, db, plan, allowDestructive); err != nil {
		return err
	}

	cmd.Printf("Applied %d statement(s).\n", len(plan.Statements))
	return nil
}
