package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/result-api/internal/models"
)

func newResultMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestResultRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectExec("INSERT INTO published_results").
		WithArgs(sqlmock.AnyArg(), "stu-1", "prog-1", 1, "FINAL", 240.0, 300.0, 80.0, 4.0, sqlmock.AnyArg(), "admin-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result := &models.PublishedResult{
		StudentID:     "stu-1",
		ProgramID:     "prog-1",
		Semester:      1,
		ExamTerm:      "FINAL",
		TotalObtained: 240,
		TotalFull:     300,
		Percentage:    80,
		GPA:           4,
		PublishedBy:   "admin-1",
		Breakdown:     []models.SubjectResult{{SubjectID: "sub-1", FinalMark: 80}},
	}
	err := repo.Create(context.Background(), result)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.PublishedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectExec("INSERT INTO published_results").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.PublishedResult{StudentID: "stu-1", Semester: 1, ExamTerm: "FINAL"})
	assert.ErrorIs(t, err, ErrDuplicateResult)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryFindByKey(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	breakdown, err := json.Marshal([]models.SubjectResult{{SubjectID: "sub-1", SubjectCode: "CS101", FinalMark: 80, Grade: "A"}})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "student_id", "program_id", "semester", "exam_term", "total_obtained", "total_full", "percentage", "gpa", "breakdown", "published_by", "published_at", "updated_at"}).
		AddRow("res-1", "stu-1", "prog-1", 1, "FINAL", 240.0, 300.0, 80.0, 4.0, breakdown, "admin-1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM published_results").
		WithArgs("stu-1", 1, "FINAL").
		WillReturnRows(rows)

	result, err := repo.FindByKey(context.Background(), "stu-1", 1, "FINAL")
	require.NoError(t, err)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "CS101", result.Breakdown[0].SubjectCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryListWithFilter(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "program_id", "semester", "exam_term", "total_obtained", "total_full", "percentage", "gpa", "breakdown", "published_by", "published_at", "updated_at"}).
		AddRow("res-1", "stu-1", "prog-1", 1, "FINAL", 240.0, 300.0, 80.0, 4.0, []byte("[]"), "admin-1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM published_results WHERE 1=1 AND program_id").
		WithArgs("prog-1", 1).
		WillReturnRows(rows)

	results, err := repo.List(context.Background(), models.PublishedResultFilter{ProgramID: "prog-1", Semester: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectExec("UPDATE published_results").
		WithArgs("res-1", 250.0, 300.0, 83.33, 4.0, sqlmock.AnyArg(), "admin-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.PublishedResult{
		ID: "res-1", TotalObtained: 250, TotalFull: 300, Percentage: 83.33, GPA: 4, PublishedBy: "admin-2",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
