package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/result-api/internal/models"
)

// StudentRepository provides read access to the student directory.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, program_id, symbol_no, full_name, email, active, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns students matching the filter plus the unpaginated total.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := ` FROM students WHERE 1=1`
	var args []interface{}
	if filter.ProgramID != "" {
		base += fmt.Sprintf(" AND program_id = $%d", len(args)+1)
		args = append(args, filter.ProgramID)
	}
	if filter.Active != nil {
		base += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(full_name) LIKE $%d OR symbol_no LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	query := `SELECT id, program_id, symbol_no, full_name, email, active, created_at, updated_at` + base +
		fmt.Sprintf(" ORDER BY symbol_no LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	return students, total, nil
}

// ListByProgram returns active students enrolled in a program.
func (r *StudentRepository) ListByProgram(ctx context.Context, programID string) ([]models.Student, error) {
	const query = `SELECT id, program_id, symbol_no, full_name, email, active, created_at, updated_at
        FROM students WHERE program_id = $1 AND active = TRUE ORDER BY symbol_no`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, programID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
