package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/config"
	pgconn "github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
		Long: "Apply, roll back or inspect the migrations under database.migration_path.\n" +
			"Commands that open Postgres apply pending migrations themselves; this one\n" +
			"runs them ahead of a deploy or undoes one.",
	}
	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd(), newMigrateStatusCmd())
	return cmd
}

// MigrationState is the applied schema version.
type MigrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s MigrationState) String() string {
	if s.Dirty {
		return fmt.Sprintf("version %d (dirty)", s.Version)
	}
	return fmt.Sprintf("version %d", s.Version)
}

func databaseConfig(cmd *cobra.Command) (config.DatabaseConfig, error) {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	db := c.Config.Database
	if !db.Enabled {
		return db, errors.New(errors.ErrCodeFeatureDisabled, "postgres is disabled (database.enabled)")
	}
	if db.MigrationPath == "" {
		return db, errors.New(errors.ErrCodeValidation, "database.migration_path is empty")
	}
	return db, nil
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := databaseConfig(cmd)
			if err != nil {
				return err
			}
			url := pgconn.ConnString(db)
			if err := pgconn.RunMigrations(url, db.MigrationPath); err != nil {
				return err
			}
			return printMigrationState(cmd, url, db.MigrationPath)
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down STEPS",
		Short: "Roll back the last STEPS migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Newf(errors.ErrCodeValidation, "steps must be a number, got %q", args[0])
			}
			db, err := databaseConfig(cmd)
			if err != nil {
				return err
			}
			url := pgconn.ConnString(db)
			if err := pgconn.RollbackMigration(url, db.MigrationPath, steps); err != nil {
				return err
			}
			return printMigrationState(cmd, url, db.MigrationPath)
		},
	}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := databaseConfig(cmd)
			if err != nil {
				return err
			}
			return printMigrationState(cmd, pgconn.ConnString(db), db.MigrationPath)
		},
	}
}

func printMigrationState(cmd *cobra.Command, url, path string) error {
	v, dirty, err := pgconn.MigrationStatus(url, path)
	if err != nil {
		return err
	}
	return PrintResult(cmd, MigrationState{Version: v, Dirty: dirty})
}

//Personal.AI order the ending
