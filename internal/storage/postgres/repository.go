// Package postgres persists reconciliation runs and their merged rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"energy-reconcile/internal/reconcile"
)

const (
	defaultRowTable = "energy_monthly_reconciled"
	defaultRunTable = "reconciliation_runs"
)

// Repository writes run output into Postgres. Row saves are idempotent
// upserts keyed by (entity, month, fuel) so a re-run overwrites in place.
type Repository struct {
	db       *sql.DB
	rowTable string
	runTable string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*Repository)

// WithRowTable overrides the default row table name.
func WithRowTable(table string) RepositoryOption {
	return func(repo *Repository) {
		if table != "" {
			repo.rowTable = table
		}
	}
}

// WithRunTable overrides the default run table name.
func WithRunTable(table string) RepositoryOption {
	return func(repo *Repository) {
		if table != "" {
			repo.runTable = table
		}
	}
}

// NewRepository creates a repository using the default table names.
func NewRepository(db *sql.DB, opts ...RepositoryOption) (*Repository, error) {
	if db == nil {
		return nil, errors.New("postgres: nil db")
	}
	repo := &Repository{
		db:       db,
		rowTable: defaultRowTable,
		runTable: defaultRunTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// SaveRun persists the run metadata and every merged row in one transaction
// and returns the run id.
func (r *Repository) SaveRun(ctx context.Context, result *reconcile.Result) (int64, error) {
	if result == nil {
		return 0, errors.New("postgres: nil result")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	runID, err := r.insertRun(ctx, tx, result.Report)
	if err != nil {
		return 0, err
	}
	if err := r.upsertRows(ctx, tx, runID, result.Rows); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// LatestRun loads the most recent run report, or (0, nil, nil) when the
// table is empty.
func (r *Repository) LatestRun(ctx context.Context) (int64, *reconcile.RunReport, error) {
	query := fmt.Sprintf(`
SELECT id, report
FROM %s
ORDER BY generated_at DESC, id DESC
LIMIT 1`, r.runTable)

	var (
		id  int64
		raw []byte
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&id, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}

	var report reconcile.RunReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return 0, nil, err
	}
	return id, &report, nil
}

func (r *Repository) insertRun(ctx context.Context, tx *sql.Tx, report reconcile.RunReport) (int64, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	generated_at,
	calendar_start,
	calendar_end,
	entities,
	rows_emitted,
	modeled_series,
	failed_series,
	fallback_series,
	zero_basis_rows,
	excluded_entities,
	report
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
RETURNING id`, r.runTable)

	var runID int64
	err = tx.QueryRowContext(
		ctx,
		query,
		report.GeneratedAt,
		report.CalendarStart,
		report.CalendarEnd,
		report.Entities,
		report.Rows,
		report.ModeledSeries,
		len(report.FailedSeries),
		len(report.Fallbacks),
		len(report.ZeroBasisRows),
		len(report.Excluded),
		raw,
	).Scan(&runID)
	if err != nil {
		return 0, err
	}
	return runID, nil
}

func (r *Repository) upsertRows(ctx context.Context, tx *sql.Tx, runID int64, rows []reconcile.Row) error {
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	entity,
	entity_name,
	eu_member,
	month,
	fuel,
	demand,
	adjusted_demand,
	total_generation,
	adjusted_total,
	net_imports,
	fuel_value,
	adjusted_fuel_value,
	predicted,
	zero_basis,
	fallback
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
)
ON CONFLICT (entity, month, fuel)
DO UPDATE SET
	run_id = EXCLUDED.run_id,
	entity_name = EXCLUDED.entity_name,
	eu_member = EXCLUDED.eu_member,
	demand = EXCLUDED.demand,
	adjusted_demand = EXCLUDED.adjusted_demand,
	total_generation = EXCLUDED.total_generation,
	adjusted_total = EXCLUDED.adjusted_total,
	net_imports = EXCLUDED.net_imports,
	fuel_value = EXCLUDED.fuel_value,
	adjusted_fuel_value = EXCLUDED.adjusted_fuel_value,
	predicted = EXCLUDED.predicted,
	zero_basis = EXCLUDED.zero_basis,
	fallback = EXCLUDED.fallback,
	updated_at = NOW()`, r.rowTable)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(
			ctx,
			runID,
			row.Entity,
			row.EntityName,
			row.EUMember,
			row.Date,
			string(row.Fuel),
			row.Demand,
			row.AdjustedDemand,
			row.TotalGeneration,
			row.AdjustedTotal,
			row.NetImports,
			row.FuelValue,
			row.AdjustedFuelValue,
			row.Predicted,
			row.ZeroBasis,
			row.Fallback,
		); err != nil {
			return err
		}
	}
	return nil
}
