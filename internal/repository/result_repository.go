package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushub/result-api/internal/models"
)

// ErrDuplicateResult is returned when the (student, semester, exam term) unique
// constraint rejects an insert. The constraint is the guard against two
// concurrent publications both succeeding; the loser observes this error.
var ErrDuplicateResult = errors.New("published result already exists for key")

const uniqueViolation = "23505"

// ResultRepository manages published result snapshots.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

type publishedResultRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	ProgramID     string    `db:"program_id"`
	Semester      int       `db:"semester"`
	ExamTerm      string    `db:"exam_term"`
	TotalObtained float64   `db:"total_obtained"`
	TotalFull     float64   `db:"total_full"`
	Percentage    float64   `db:"percentage"`
	GPA           float64   `db:"gpa"`
	Breakdown     []byte    `db:"breakdown"`
	PublishedBy   string    `db:"published_by"`
	PublishedAt   time.Time `db:"published_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row publishedResultRow) toModel() (models.PublishedResult, error) {
	result := models.PublishedResult{
		ID:            row.ID,
		StudentID:     row.StudentID,
		ProgramID:     row.ProgramID,
		Semester:      row.Semester,
		ExamTerm:      row.ExamTerm,
		TotalObtained: row.TotalObtained,
		TotalFull:     row.TotalFull,
		Percentage:    row.Percentage,
		GPA:           row.GPA,
		PublishedBy:   row.PublishedBy,
		PublishedAt:   row.PublishedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if len(row.Breakdown) > 0 {
		if err := json.Unmarshal(row.Breakdown, &result.Breakdown); err != nil {
			return result, fmt.Errorf("unmarshal result breakdown: %w", err)
		}
	}
	return result, nil
}

// Create inserts a new snapshot. A duplicate (student, semester, exam term) key
// yields ErrDuplicateResult.
func (r *ResultRepository) Create(ctx context.Context, result *models.PublishedResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.PublishedAt.IsZero() {
		result.PublishedAt = now
	}
	result.UpdatedAt = now

	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal result breakdown: %w", err)
	}

	const query = `INSERT INTO published_results (id, student_id, program_id, semester, exam_term, total_obtained, total_full, percentage, gpa, breakdown, published_by, published_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := r.db.ExecContext(ctx, query,
		result.ID, result.StudentID, result.ProgramID, result.Semester, result.ExamTerm,
		result.TotalObtained, result.TotalFull, result.Percentage, result.GPA,
		breakdown, result.PublishedBy, result.PublishedAt, result.UpdatedAt,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateResult
		}
		return fmt.Errorf("insert published result: %w", err)
	}
	return nil
}

// Update overwrites an existing snapshot in place, keeping its ID and original
// publication timestamp. Used only by explicit republication.
func (r *ResultRepository) Update(ctx context.Context, result *models.PublishedResult) error {
	result.UpdatedAt = time.Now().UTC()

	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal result breakdown: %w", err)
	}

	const query = `UPDATE published_results
        SET total_obtained = $2, total_full = $3, percentage = $4, gpa = $5, breakdown = $6, published_by = $7, updated_at = $8
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		result.ID, result.TotalObtained, result.TotalFull, result.Percentage, result.GPA,
		breakdown, result.PublishedBy, result.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update published result: %w", err)
	}
	return nil
}

// FindByKey returns the live snapshot for (student, semester, exam term).
func (r *ResultRepository) FindByKey(ctx context.Context, studentID string, semester int, examTerm string) (*models.PublishedResult, error) {
	const query = `SELECT id, student_id, program_id, semester, exam_term, total_obtained, total_full, percentage, gpa, breakdown, published_by, published_at, updated_at
        FROM published_results
        WHERE student_id = $1 AND semester = $2 AND exam_term = $3`
	var row publishedResultRow
	if err := r.db.GetContext(ctx, &row, query, studentID, semester, examTerm); err != nil {
		return nil, err
	}
	result, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByID returns a snapshot by its ID.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.PublishedResult, error) {
	const query = `SELECT id, student_id, program_id, semester, exam_term, total_obtained, total_full, percentage, gpa, breakdown, published_by, published_at, updated_at
        FROM published_results WHERE id = $1`
	var row publishedResultRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	result, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns snapshots matching the filter, all predicates combined with AND.
func (r *ResultRepository) List(ctx context.Context, filter models.PublishedResultFilter) ([]models.PublishedResult, error) {
	query := `SELECT id, student_id, program_id, semester, exam_term, total_obtained, total_full, percentage, gpa, breakdown, published_by, published_at, updated_at
        FROM published_results WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.ProgramID != "" {
		query += fmt.Sprintf(" AND program_id = $%d", len(args)+1)
		args = append(args, filter.ProgramID)
	}
	if filter.Semester != 0 {
		query += fmt.Sprintf(" AND semester = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}
	if filter.ExamTerm != "" {
		query += fmt.Sprintf(" AND exam_term = $%d", len(args)+1)
		args = append(args, filter.ExamTerm)
	}
	query += " ORDER BY published_at DESC"

	var rows []publishedResultRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list published results: %w", err)
	}
	results := make([]models.PublishedResult, 0, len(rows))
	for _, row := range rows {
		result, err := row.toModel()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
