package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/result-api/internal/models"
)

// MarkRepository handles direct subject marks and extra parameter marks.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new mark repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// FindSubjectMark returns the direct mark row for a student/subject/term scope.
// Callers receive sql.ErrNoRows when no mark has been entered yet.
func (r *MarkRepository) FindSubjectMark(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (*models.SubjectMark, error) {
	const query = `SELECT id, student_id, subject_id, semester, exam_term, obtained_marks, full_marks, created_at, updated_at
        FROM student_subject_marks
        WHERE student_id = $1 AND subject_id = $2 AND semester = $3 AND exam_term = $4`
	var mark models.SubjectMark
	if err := r.db.GetContext(ctx, &mark, query, studentID, subjectID, semester, examTerm); err != nil {
		return nil, err
	}
	return &mark, nil
}

// ListSubjectMarks returns direct marks matching the filter.
func (r *MarkRepository) ListSubjectMarks(ctx context.Context, filter models.MarkFilter) ([]models.SubjectMark, error) {
	query := `SELECT id, student_id, subject_id, semester, exam_term, obtained_marks, full_marks, created_at, updated_at
        FROM student_subject_marks WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.Semester != 0 {
		query += fmt.Sprintf(" AND semester = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}
	if filter.ExamTerm != "" {
		query += fmt.Sprintf(" AND exam_term = $%d", len(args)+1)
		args = append(args, filter.ExamTerm)
	}
	query += " ORDER BY updated_at DESC"
	var marks []models.SubjectMark
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, fmt.Errorf("list subject marks: %w", err)
	}
	return marks, nil
}

// UpsertSubjectMark inserts or updates a direct subject mark.
func (r *MarkRepository) UpsertSubjectMark(ctx context.Context, mark *models.SubjectMark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mark.CreatedAt.IsZero() {
		mark.CreatedAt = now
	}
	mark.UpdatedAt = now
	const query = `INSERT INTO student_subject_marks (id, student_id, subject_id, semester, exam_term, obtained_marks, full_marks, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :semester, :exam_term, :obtained_marks, :full_marks, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, semester, exam_term)
        DO UPDATE SET obtained_marks = EXCLUDED.obtained_marks, full_marks = EXCLUDED.full_marks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("upsert subject mark: %w", err)
	}
	return nil
}

// ListParameterMarks returns all extra parameter marks for a student/subject/term scope.
func (r *MarkRepository) ListParameterMarks(ctx context.Context, studentID, subjectID string, semester int, examTerm string) ([]models.ParameterMark, error) {
	const query = `SELECT id, student_id, subject_id, parameter_id, semester, exam_term, obtained_marks, full_marks, created_at, updated_at
        FROM extra_parameter_marks
        WHERE student_id = $1 AND subject_id = $2 AND semester = $3 AND exam_term = $4`
	var marks []models.ParameterMark
	if err := r.db.SelectContext(ctx, &marks, query, studentID, subjectID, semester, examTerm); err != nil {
		return nil, fmt.Errorf("list parameter marks: %w", err)
	}
	return marks, nil
}

// UpsertParameterMark inserts or updates a single extra parameter mark.
func (r *MarkRepository) UpsertParameterMark(ctx context.Context, mark *models.ParameterMark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mark.CreatedAt.IsZero() {
		mark.CreatedAt = now
	}
	mark.UpdatedAt = now
	const query = `INSERT INTO extra_parameter_marks (id, student_id, subject_id, parameter_id, semester, exam_term, obtained_marks, full_marks, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :parameter_id, :semester, :exam_term, :obtained_marks, :full_marks, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, parameter_id, semester, exam_term)
        DO UPDATE SET obtained_marks = EXCLUDED.obtained_marks, full_marks = EXCLUDED.full_marks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("upsert parameter mark: %w", err)
	}
	return nil
}
