package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/result-api/internal/models"
)

func newWeightMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestParameterWeightRepositoryListBySubject(t *testing.T) {
	db, mock, cleanup := newWeightMock(t)
	defer cleanup()
	repo := NewParameterWeightRepository(db)

	rows := sqlmock.NewRows([]string{"id", "subject_id", "parameter_id", "weight", "parameter_code", "parameter_name", "created_at", "updated_at"}).
		AddRow("w-1", "sub-1", "par-att", 30.0, "ATT", "Attendance", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM subject_parameter_weights").
		WithArgs("sub-1").
		WillReturnRows(rows)

	weights, err := repo.ListBySubject(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, weights, 1)
	assert.Equal(t, "ATT", weights[0].ParameterCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParameterWeightRepositoryAssignDiff(t *testing.T) {
	db, mock, cleanup := newWeightMock(t)
	defer cleanup()
	repo := NewParameterWeightRepository(db)

	mock.ExpectBegin()
	existing := sqlmock.NewRows([]string{"id", "parameter_id", "weight"}).
		AddRow("w-att", "par-att", 30.0).
		AddRow("w-lab", "par-lab", 20.0)
	mock.ExpectQuery("SELECT id, parameter_id, weight FROM subject_parameter_weights").
		WithArgs("sub-1").
		WillReturnRows(existing)

	// par-att weight changes, par-prj is new, par-lab disappears.
	mock.ExpectExec("UPDATE subject_parameter_weights SET weight").
		WithArgs("w-att", 40.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subject_parameter_weights").
		WithArgs(sqlmock.AnyArg(), "sub-1", "par-prj", 10.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM subject_parameter_weights").
		WithArgs("w-lab").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Assign(context.Background(), "sub-1", []models.SubjectParameterWeight{
		{ParameterID: "par-att", Weight: 40},
		{ParameterID: "par-prj", Weight: 10},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParameterWeightRepositoryAssignRollsBack(t *testing.T) {
	db, mock, cleanup := newWeightMock(t)
	defer cleanup()
	repo := NewParameterWeightRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, parameter_id, weight FROM subject_parameter_weights").
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "parameter_id", "weight"}))
	mock.ExpectExec("INSERT INTO subject_parameter_weights").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Assign(context.Background(), "sub-1", []models.SubjectParameterWeight{
		{ParameterID: "par-att", Weight: 40},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
