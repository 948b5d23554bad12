package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/result-api/internal/models"
)

// ParameterWeightRepository manages per-subject evaluation parameter weight
// assignments.
type ParameterWeightRepository struct {
	db *sqlx.DB
}

// NewParameterWeightRepository constructs repository.
func NewParameterWeightRepository(db *sqlx.DB) *ParameterWeightRepository {
	return &ParameterWeightRepository{db: db}
}

// ListBySubject returns the weight assignments of a subject with parameter metadata.
func (r *ParameterWeightRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectParameterWeight, error) {
	const query = `SELECT spw.id, spw.subject_id, spw.parameter_id, spw.weight,
        ep.code AS parameter_code, ep.name AS parameter_name, spw.created_at, spw.updated_at
        FROM subject_parameter_weights spw
        JOIN evaluation_parameters ep ON ep.id = spw.parameter_id
        WHERE spw.subject_id = $1 ORDER BY ep.code`
	var weights []models.SubjectParameterWeight
	if err := r.db.SelectContext(ctx, &weights, query, subjectID); err != nil {
		return nil, fmt.Errorf("list parameter weights: %w", err)
	}
	return weights, nil
}

// Assign reconciles a subject's weight assignments against the desired set in a
// single transaction: new parameters are inserted, changed weights updated, and
// parameters missing from the desired set deleted. Partial application is never
// observable; any failure rolls the whole set back.
func (r *ParameterWeightRepository) Assign(ctx context.Context, subjectID string, desired []models.SubjectParameterWeight) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.assignTx(ctx, tx, subjectID, desired); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit parameter weights: %w", err)
	}
	return nil
}

type weightRow struct {
	ID          string  `db:"id"`
	ParameterID string  `db:"parameter_id"`
	Weight      float64 `db:"weight"`
}

func (r *ParameterWeightRepository) assignTx(ctx context.Context, tx *sqlx.Tx, subjectID string, desired []models.SubjectParameterWeight) error {
	var existing []weightRow
	const selectQuery = `SELECT id, parameter_id, weight FROM subject_parameter_weights WHERE subject_id = $1 FOR UPDATE`
	if err := tx.SelectContext(ctx, &existing, selectQuery, subjectID); err != nil {
		return fmt.Errorf("load parameter weights: %w", err)
	}

	current := make(map[string]weightRow, len(existing))
	for _, row := range existing {
		current[row.ParameterID] = row
	}

	now := time.Now().UTC()
	wanted := make(map[string]struct{}, len(desired))
	for i := range desired {
		wanted[desired[i].ParameterID] = struct{}{}
		row, ok := current[desired[i].ParameterID]
		if !ok {
			record := models.SubjectParameterWeight{
				ID:          uuid.NewString(),
				SubjectID:   subjectID,
				ParameterID: desired[i].ParameterID,
				Weight:      desired[i].Weight,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			const insertQuery = `INSERT INTO subject_parameter_weights (id, subject_id, parameter_id, weight, created_at, updated_at)
                VALUES (:id, :subject_id, :parameter_id, :weight, :created_at, :updated_at)`
			if _, err := tx.NamedExecContext(ctx, insertQuery, record); err != nil {
				return fmt.Errorf("insert parameter weight: %w", err)
			}
			continue
		}
		if row.Weight != desired[i].Weight {
			const updateQuery = `UPDATE subject_parameter_weights SET weight = $2, updated_at = $3 WHERE id = $1`
			if _, err := tx.ExecContext(ctx, updateQuery, row.ID, desired[i].Weight, now); err != nil {
				return fmt.Errorf("update parameter weight: %w", err)
			}
		}
	}

	for parameterID, row := range current {
		if _, ok := wanted[parameterID]; ok {
			continue
		}
		const deleteQuery = `DELETE FROM subject_parameter_weights WHERE id = $1`
		if _, err := tx.ExecContext(ctx, deleteQuery, row.ID); err != nil {
			return fmt.Errorf("delete parameter weight: %w", err)
		}
	}

	return nil
}
