package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the run and row tables when they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	runDDL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	calendar_start TIMESTAMPTZ NOT NULL,
	calendar_end TIMESTAMPTZ NOT NULL,
	entities INT NOT NULL,
	rows_emitted INT NOT NULL,
	modeled_series INT NOT NULL,
	failed_series INT NOT NULL,
	fallback_series INT NOT NULL,
	zero_basis_rows INT NOT NULL,
	excluded_entities INT NOT NULL,
	report JSONB NOT NULL
)`, r.runTable)

	rowDDL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	entity TEXT NOT NULL,
	entity_name TEXT NOT NULL,
	eu_member BOOLEAN NOT NULL,
	month TIMESTAMPTZ NOT NULL,
	fuel TEXT NOT NULL,
	run_id BIGINT NOT NULL,
	demand DOUBLE PRECISION NOT NULL,
	adjusted_demand DOUBLE PRECISION NOT NULL,
	total_generation DOUBLE PRECISION NOT NULL,
	adjusted_total DOUBLE PRECISION NOT NULL,
	net_imports DOUBLE PRECISION NOT NULL,
	fuel_value DOUBLE PRECISION NOT NULL,
	adjusted_fuel_value DOUBLE PRECISION NOT NULL,
	predicted BOOLEAN NOT NULL,
	zero_basis BOOLEAN NOT NULL,
	fallback BOOLEAN NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (entity, month, fuel)
)`, r.rowTable)

	if _, err := r.db.ExecContext(ctx, runDDL); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, rowDDL); err != nil {
		return err
	}
	return nil
}
