package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}

	if err := r.createComparisonReportsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create comparison_reports table")
	}

	if err := r.createMetricResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create metric_results table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			target VARCHAR(32) NOT NULL,
			seed BIGINT NOT NULL,
			primary_metric VARCHAR(16) NOT NULL,
			partial BOOLEAN NOT NULL DEFAULT false,
			folds INTEGER NOT NULL,
			fingerprint CHAR(64) NOT NULL,
			generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createComparisonReportsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comparison_reports (
			run_id UUID PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
			payload JSONB NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createMetricResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS metric_results (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			model VARCHAR(64) NOT NULL,
			fold_id INTEGER NOT NULL,
			horizon INTEGER NOT NULL,
			metrics JSONB,
			mape_excluded BOOLEAN NOT NULL DEFAULT false,
			missing BOOLEAN NOT NULL DEFAULT false,
			failure_reason TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON runs(generated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_metric_results_run ON metric_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_metric_results_run_model ON metric_results(run_id, model)`,
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
