package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// SaveRun persists the run header, its comparison report and every
// per-fold metric result in one transaction.
func (r *ResultRepositoryImpl) SaveRun(ctx context.Context, report *eval.ComparisonReport, results []eval.MetricResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, target, seed, primary_metric, partial, folds, fingerprint, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.RunID, report.Target, report.Seed, report.PrimaryMetric,
		report.Partial, report.Folds, report.Fingerprint, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.RunID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO comparison_reports (run_id, payload) VALUES ($1, $2)`,
		report.RunID, payload)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", report.RunID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO metric_results (run_id, model, fold_id, horizon, metrics, mape_excluded, missing, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare metric insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		metricsJSON, err := json.Marshal(res.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics for %s fold %d: %w", res.Model, res.FoldID, err)
		}
		_, err = stmt.ExecContext(ctx, report.RunID, res.Model, res.FoldID, res.Horizon,
			metricsJSON, res.MAPEExcluded, res.Missing, res.FailureReason)
		if err != nil {
			return fmt.Errorf("insert metric result for %s fold %d: %w", res.Model, res.FoldID, err)
		}
	}

	return tx.Commit()
}

// GetReport retrieves the comparison report for one run
func (r *ResultRepositoryImpl) GetReport(ctx context.Context, runID core.RunID) (*eval.ComparisonReport, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM comparison_reports WHERE run_id = $1`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", runID, err)
	}
	return unmarshalReport(payload)
}

// LatestReport retrieves the most recently generated comparison report
func (r *ResultRepositoryImpl) LatestReport(ctx context.Context) (*eval.ComparisonReport, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT cr.payload FROM comparison_reports cr
		JOIN runs ON runs.id = cr.run_id
		ORDER BY runs.generated_at DESC
		LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest report: %w", err)
	}
	return unmarshalReport(payload)
}

// GetMetricResults retrieves the raw per-fold results for one run
func (r *ResultRepositoryImpl) GetMetricResults(ctx context.Context, runID core.RunID) ([]eval.MetricResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT model, fold_id, horizon, metrics, mape_excluded, missing, failure_reason
		FROM metric_results
		WHERE run_id = $1
		ORDER BY model, fold_id, horizon`, runID)
	if err != nil {
		return nil, fmt.Errorf("get metric results %s: %w", runID, err)
	}
	defer rows.Close()

	var results []eval.MetricResult
	for rows.Next() {
		var res eval.MetricResult
		var metricsJSON []byte
		if err := rows.Scan(&res.Model, &res.FoldID, &res.Horizon, &metricsJSON,
			&res.MAPEExcluded, &res.Missing, &res.FailureReason); err != nil {
			return nil, fmt.Errorf("scan metric result: %w", err)
		}
		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &res.Metrics); err != nil {
				return nil, fmt.Errorf("unmarshal metrics: %w", err)
			}
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric results: %w", err)
	}
	if len(results) == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM runs WHERE id = $1)`, runID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check run %s: %w", runID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
		}
	}
	return results, nil
}

// ListRuns lists completed runs, newest first
func (r *ResultRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, target, seed, partial, generated_at
		FROM runs
		ORDER BY generated_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var summaries []ports.RunSummary
	for rows.Next() {
		var s ports.RunSummary
		if err := rows.Scan(&s.RunID, &s.Target, &s.Seed, &s.Partial, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func unmarshalReport(payload []byte) (*eval.ComparisonReport, error) {
	var report eval.ComparisonReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal comparison report: %w", err)
	}
	return &report, nil
}
