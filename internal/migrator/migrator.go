// Package migrator keeps the pawtrack database in step with the
// embedded target schema. It inspects the live database with Atlas,
// diffs it against schema.sql applied to a throwaway database, and
// plans the statements needed to close the gap.
package migrator

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"

	"github.com/eleven-am/pawtrack/internal/logger"
)

//go:embed schema.sql
var targetSchema string

// TargetSchema returns the DDL the migrator converges the database to.
func TargetSchema() string {
	return targetSchema
}

// Plan is the computed set of changes between the live database and
// the target schema.
type Plan struct {
	Statements []string
	Changes    []schema.Change
}

// Empty reports whether the database already matches the target.
func (p *Plan) Empty() bool {
	return len(p.Changes) == 0
}

// Destructive returns the number of destructive changes in the plan
// and a human-readable description of each.
func (p *Plan) Destructive() (int, []string) {
	var descriptions []string
	for _, change := range p.Changes {
		if IsDestructiveChange(change) {
			descriptions = append(descriptions, DescribeChange(change))
		}
	}
	return len(descriptions), descriptions
}

// Migrator plans and applies schema migrations.
type Migrator struct {
	config  *DBConfig
	tempDBs *TempDBManager
	log     logger.Logger
}

func New(config *DBConfig) *Migrator {
	return &Migrator{
		config:  config,
		tempDBs: NewTempDBManager(config),
		log:     logger.Migration(),
	}
}

// Plan computes the changes needed to bring db up to the target
// schema. When assumeEmpty is true the live database is taken to be
// empty and inspection is skipped; this is the path for a database
// that was just created.
func (m *Migrator) Plan(ctx context.Context, db *sql.DB, assumeEmpty bool) (*Plan, error) {
	var currentRealm *schema.Realm

	if assumeEmpty {
		currentRealm = &schema.Realm{
			Schemas: []*schema.Schema{
				{Name: "public", Tables: []*schema.Table{}},
			},
		}
	} else {
		sourceDriver, err := postgres.Open(db)
		if err != nil {
			return nil, fmt.Errorf("failed to create source driver: %w", err)
		}

		currentRealm, err = sourceDriver.InspectRealm(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect current schema: %w", err)
		}
	}

	tempDBName := fmt.Sprintf("pawtrack_plan_%d", time.Now().Unix())
	tempDB, cleanup, err := m.tempDBs.CreateTempDB(ctx, tempDBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp database: %w", err)
	}
	defer cleanup()

	if _, err := tempDB.ExecContext(ctx, targetSchema); err != nil {
		return nil, fmt.Errorf("failed to apply target schema to temp database: %w", err)
	}

	targetDriver, err := postgres.Open(tempDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create target driver: %w", err)
	}

	targetRealm, err := targetDriver.InspectRealm(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect target schema: %w", err)
	}

	var diffDriver migrate.Driver = targetDriver
	if !assumeEmpty {
		sourceDriver, err := postgres.Open(db)
		if err != nil {
			return nil, fmt.Errorf("failed to create source driver for diff: %w", err)
		}
		diffDriver = sourceDriver
	}

	changes, err := diffDriver.RealmDiff(currentRealm, targetRealm)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate diff: %w", err)
	}

	if len(changes) == 0 {
		return &Plan{}, nil
	}

	statements, err := planStatements(ctx, diffDriver, changes)
	if err != nil {
		return nil, err
	}

	return &Plan{Statements: statements, Changes: changes}, nil
}

// Apply executes a previously computed plan inside a transaction.
// Destructive plans are refused unless allowDestructive is set.
func (m *Migrator) Apply(ctx context.Context, db *sql.DB, plan *Plan, allowDestructive bool) error {
	if plan.Empty() {
		m.log.Infof("database already matches target schema")
		return nil
	}

	if count, descriptions := plan.Destructive(); count > 0 && !allowDestructive {
		for _, d := range descriptions {
			m.log.Warnf("destructive change: %s", d)
		}
		return fmt.Errorf("plan contains %d destructive change(s); re-run with destructive changes allowed", count)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}

	for _, stmt := range plan.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	m.log.Infof("applied %d migration statement(s)", len(plan.Statements))
	return nil
}

func planStatements(ctx context.Context, driver migrate.Driver, changes []schema.Change) ([]string, error) {
	plan, err := driver.PlanChanges(ctx, "", changes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	statements := make([]string, len(plan.Changes))
	for i, change := range plan.Changes {
		statements[i] = change.Cmd
		if change.Comment != "" {
			statements[i] = fmt.Sprintf("-- %s\n%s", change.Comment, change.Cmd)
		}
	}

	return statements, nil
}

// IsDestructiveChange reports whether applying change can lose data.
func IsDestructiveChange(change schema.Change) bool {
	switch c := change.(type) {
	case *schema.DropTable, *schema.DropColumn, *schema.DropIndex, *schema.DropForeignKey:
		return true
	case *schema.ModifyTable:
		for _, sub := range c.Changes {
			if IsDestructiveChange(sub) {
				return true
			}
		}
	}
	return false
}

// DescribeChange renders a change for operator-facing output.
func DescribeChange(change schema.Change) string {
	switch c := change.(type) {
	case *schema.AddTable:
		return fmt.Sprintf("Create table %s", c.T.Name)
	case *schema.DropTable:
		return fmt.Sprintf("Drop table %s", c.T.Name)
	case *schema.ModifyTable:
		return fmt.Sprintf("Modify table %s (%d changes)", c.T.Name, len(c.Changes))
	case *schema.AddColumn:
		return fmt.Sprintf("Add column %s", c.C.Name)
	case *schema.DropColumn:
		return fmt.Sprintf("Drop column %s", c.C.Name)
	case *schema.ModifyColumn:
		return fmt.Sprintf("Modify column %s", c.To.Name)
	case *schema.AddIndex:
		return fmt.Sprintf("Add index %s", c.I.Name)
	case *schema.DropIndex:
		return fmt.Sprintf("Drop index %s", c.I.Name)
	case *schema.AddForeignKey:
		return fmt.Sprintf("Add foreign key %s", c.F.Symbol)
	case *schema.DropForeignKey:
		return fmt.Sprintf("Drop foreign key %s", c.F.Symbol)
	default:
		return fmt.Sprintf("Change type %T", change)
	}
}
