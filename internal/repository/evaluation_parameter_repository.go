package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/result-api/internal/models"
)

// EvaluationParameterRepository manages evaluation parameter persistence.
type EvaluationParameterRepository struct {
	db *sqlx.DB
}

// NewEvaluationParameterRepository creates a repository instance.
func NewEvaluationParameterRepository(db *sqlx.DB) *EvaluationParameterRepository {
	return &EvaluationParameterRepository{db: db}
}

// List returns live evaluation parameters optionally filtered by search query.
func (r *EvaluationParameterRepository) List(ctx context.Context, search string) ([]models.EvaluationParameter, error) {
	query := "SELECT id, code, name, deleted_at, created_at, updated_at FROM evaluation_parameters WHERE deleted_at IS NULL"
	var args []interface{}
	if search != "" {
		query += " AND (LOWER(name) LIKE $1 OR LOWER(code) LIKE $1)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY created_at"
	var parameters []models.EvaluationParameter
	if err := r.db.SelectContext(ctx, &parameters, query, args...); err != nil {
		return nil, fmt.Errorf("list evaluation parameters: %w", err)
	}
	return parameters, nil
}

// FindByID returns a parameter by its ID.
func (r *EvaluationParameterRepository) FindByID(ctx context.Context, id string) (*models.EvaluationParameter, error) {
	const query = `SELECT id, code, name, deleted_at, created_at, updated_at FROM evaluation_parameters WHERE id = $1`
	var parameter models.EvaluationParameter
	if err := r.db.GetContext(ctx, &parameter, query, id); err != nil {
		return nil, err
	}
	return &parameter, nil
}

// ExistsByCode checks whether a parameter code is already used by a live parameter.
func (r *EvaluationParameterRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM evaluation_parameters WHERE code = $1 AND deleted_at IS NULL"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check evaluation parameter: %w", err)
	}
	return true, nil
}

// Create inserts a new evaluation parameter.
func (r *EvaluationParameterRepository) Create(ctx context.Context, parameter *models.EvaluationParameter) error {
	if parameter.ID == "" {
		parameter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if parameter.CreatedAt.IsZero() {
		parameter.CreatedAt = now
	}
	parameter.UpdatedAt = now
	const query = `INSERT INTO evaluation_parameters (id, code, name, created_at, updated_at)
        VALUES (:id, :code, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parameter); err != nil {
		return fmt.Errorf("create evaluation parameter: %w", err)
	}
	return nil
}

// SoftDelete marks a parameter as removed without dropping rows that published
// snapshots may still reference.
func (r *EvaluationParameterRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE evaluation_parameters SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete evaluation parameter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete evaluation parameter: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
