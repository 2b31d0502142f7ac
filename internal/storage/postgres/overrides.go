package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmachale/scenforge/internal/scenario/entity"
	"github.com/tmachale/scenforge/internal/scenario/variable"
)

// basicTarget marks a basic-value row. The target column is part of the
// primary key, so basic values use a sentinel instead of NULL.
const basicTarget = ""

// OverrideRepository persists per-object variable override collections.
// One row per override value; saving replaces the object's rows wholesale
// so the table always mirrors the merge result.
type OverrideRepository struct {
	db *pgxpool.Pool
}

// NewOverrideRepository creates an OverrideRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewOverrideRepository(db *pgxpool.Pool) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// SaveOverrides replaces all persisted override rows for the object with
// the contents of ov, transactionally.
//
// Precondition: kind must be valid and id non-empty.
// Postcondition: The table holds exactly one row per override value of
// ov, or the transaction rolled back and an error is returned.
func (r *OverrideRepository) SaveOverrides(ctx context.Context, kind entity.Kind, id string, ov *entity.Overrides) error {
	if !kind.Valid() {
		return fmt.Errorf("saving overrides: invalid kind %q", kind)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM variable_overrides WHERE entity_kind = $1 AND entity_id = $2`,
		string(kind), id,
	); err != nil {
		return fmt.Errorf("clearing overrides for %s %q: %w", kind, id, err)
	}

	const insert = `
		INSERT INTO variable_overrides (entity_kind, entity_id, category, variable_id, target, value)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, cat := range ov.Categories() {
		vs := ov.CategoryOverrides(cat)
		for varID, v := range vs.Basic {
			if _, err := tx.Exec(ctx, insert, string(kind), id, cat.String(), varID, basicTarget, v); err != nil {
				return fmt.Errorf("inserting basic override %s/%s: %w", cat, varID, err)
			}
		}
		for varID, rec := range vs.Modifiers {
			for tgt, v := range rec {
				if _, err := tx.Exec(ctx, insert, string(kind), id, cat.String(), varID, tgt.String(), v); err != nil {
					return fmt.Errorf("inserting modifier override %s/%s/%s: %w", cat, varID, tgt, err)
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing overrides for %s %q: %w", kind, id, err)
	}
	return nil
}

// LoadOverrides reads the persisted override collections for the object.
//
// Postcondition: Returns a non-nil Overrides (empty when no rows exist)
// or a non-nil error. Rows with unknown categories or targets are an
// error, never silently dropped.
func (r *OverrideRepository) LoadOverrides(ctx context.Context, kind entity.Kind, id string) (*entity.Overrides, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category, variable_id, target, value
		FROM variable_overrides
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY category, variable_id, target`,
		string(kind), id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying overrides for %s %q: %w", kind, id, err)
	}
	defer rows.Close()

	ov := entity.NewOverrides()
	for rows.Next() {
		var catName, varID, targetName string
		var value int
		if err := rows.Scan(&catName, &varID, &targetName, &value); err != nil {
			return nil, fmt.Errorf("scanning override row: %w", err)
		}
		cat, err := variable.ParseCategory(catName)
		if err != nil {
			return nil, fmt.Errorf("override row for %s %q: %w", kind, id, err)
		}
		vs := ov.CategoryOverrides(cat)
		if targetName == basicTarget {
			vs.Basic[varID] = value
			continue
		}
		tgt, err := variable.ParseTarget(targetName)
		if err != nil {
			return nil, fmt.Errorf("override row for %s %q: %w", kind, id, err)
		}
		rec := vs.Modifiers[varID]
		if rec == nil {
			rec = make(variable.ModifierRecord)
			vs.Modifiers[varID] = rec
		}
		rec[tgt] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading override rows: %w", err)
	}
	return ov, nil
}
